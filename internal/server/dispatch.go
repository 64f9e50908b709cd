package server

import "github.com/x11anywhere/x11anywhere/internal/proto"

// dispatchTable maps every core-protocol opcode this server recognizes to
// its handler. BIG-REQUESTS' own Enable request arrives under its
// dynamically assigned extension major opcode and is wired in separately
// by registerExtensionOpcodes (called from init below), mirroring how
// spec.md §4.8 describes extensions claiming opcode space above 127.
var dispatchTable = map[uint8]handlerFunc{
	proto.OpCreateWindow:           handleCreateWindow,
	proto.OpChangeWindowAttributes: handleChangeWindowAttributes,
	proto.OpGetWindowAttributes:    handleGetWindowAttributes,
	proto.OpDestroyWindow:          handleDestroyWindow,
	proto.OpDestroySubwindows:      handleDestroySubwindows,
	proto.OpChangeSaveSet:          handleChangeSaveSet,
	proto.OpReparentWindow:         handleReparentWindow,
	proto.OpMapWindow:              handleMapWindow,
	proto.OpMapSubwindows:          handleMapSubwindows,
	proto.OpUnmapWindow:            handleUnmapWindow,
	proto.OpUnmapSubwindows:        handleUnmapSubwindows,
	proto.OpConfigureWindow:        handleConfigureWindow,
	proto.OpCirculateWindow:        handleCirculateWindow,
	proto.OpGetGeometry:            handleGetGeometry,
	proto.OpQueryTree:              handleQueryTree,

	proto.OpInternAtom:        handleInternAtom,
	proto.OpGetAtomName:       handleGetAtomName,
	proto.OpChangeProperty:    handleChangeProperty,
	proto.OpDeleteProperty:    handleDeleteProperty,
	proto.OpGetProperty:       handleGetProperty,
	proto.OpListProperties:    handleListProperties,
	proto.OpSetSelectionOwner: handleSetSelectionOwner,
	proto.OpGetSelectionOwner: handleGetSelectionOwner,
	proto.OpConvertSelection:  handleConvertSelection,
	proto.OpSendEvent:         handleSendEvent,

	proto.OpGrabPointer:              handleGrabPointer,
	proto.OpUngrabPointer:            handleUngrabPointer,
	proto.OpGrabButton:               handleGrabButton,
	proto.OpUngrabButton:             handleUngrabButton,
	proto.OpChangeActivePointerGrab:  handleChangeActivePointerGrab,
	proto.OpGrabKeyboard:             handleGrabKeyboard,
	proto.OpUngrabKeyboard:           handleUngrabKeyboard,
	proto.OpGrabKey:                  handleGrabKey,
	proto.OpUngrabKey:                handleUngrabKey,
	proto.OpAllowEvents:              handleAllowEvents,
	proto.OpGrabServer:               handleGrabServer,
	proto.OpUngrabServer:             handleUngrabServer,
	proto.OpQueryPointer:             handleQueryPointer,
	proto.OpGetMotionEvents:          handleGetMotionEvents,
	proto.OpTranslateCoordinates:     handleTranslateCoordinates,
	proto.OpWarpPointer:              handleWarpPointer,
	proto.OpSetInputFocus:            handleSetInputFocus,
	proto.OpGetInputFocus:            handleGetInputFocus,
	proto.OpQueryKeymap:              handleQueryKeymap,

	proto.OpOpenFont:          handleOpenFont,
	proto.OpCloseFont:         handleCloseFont,
	proto.OpQueryFont:         handleQueryFont,
	proto.OpQueryTextExtents:  handleQueryTextExtents,
	proto.OpListFonts:         handleListFonts,
	proto.OpListFontsWithInfo: handleListFontsWithInfo,
	proto.OpSetFontPath:       handleSetFontPath,
	proto.OpGetFontPath:       handleGetFontPath,

	proto.OpCreatePixmap: handleCreatePixmap,
	proto.OpFreePixmap:   handleFreePixmap,

	proto.OpCreateGC:          handleCreateGC,
	proto.OpChangeGC:          handleChangeGC,
	proto.OpCopyGC:            handleCopyGC,
	proto.OpSetDashes:         handleSetDashes,
	proto.OpSetClipRectangles: handleSetClipRectangles,
	proto.OpFreeGC:            handleFreeGC,

	proto.OpClearArea:         handleClearArea,
	proto.OpCopyArea:          handleCopyArea,
	proto.OpCopyPlane:         handleCopyPlane,
	proto.OpPolyPoint:         handlePolyPoint,
	proto.OpPolyLine:          handlePolyLine,
	proto.OpPolySegment:       handlePolySegment,
	proto.OpPolyRectangle:     handlePolyRectangle,
	proto.OpPolyArc:           handlePolyArc,
	proto.OpFillPoly:          handleFillPoly,
	proto.OpPolyFillRectangle: handlePolyFillRectangle,
	proto.OpPolyFillArc:       handlePolyFillArc,
	proto.OpPutImage:          handlePutImage,
	proto.OpGetImage:          handleGetImage,
	proto.OpPolyText8:         handlePolyText8,
	proto.OpPolyText16:        handlePolyText16,
	proto.OpImageText8:        handleImageText8,
	proto.OpImageText16:       handleImageText16,

	proto.OpCreateColormap:         handleCreateColormap,
	proto.OpFreeColormap:           handleFreeColormap,
	proto.OpCopyColormapAndFree:    handleCopyColormapAndFree,
	proto.OpInstallColormap:        handleInstallColormap,
	proto.OpUninstallColormap:      handleUninstallColormap,
	proto.OpListInstalledColormaps: handleListInstalledColormaps,
	proto.OpAllocColor:             handleAllocColor,
	proto.OpAllocNamedColor:        handleAllocNamedColor,
	proto.OpAllocColorCells:        handleAllocColorCells,
	proto.OpAllocColorPlanes:       handleAllocColorPlanes,
	proto.OpFreeColors:             handleFreeColors,
	proto.OpStoreColors:            handleStoreColors,
	proto.OpStoreNamedColor:        handleStoreNamedColor,
	proto.OpQueryColors:            handleQueryColors,
	proto.OpLookupColor:            handleLookupColor,

	proto.OpCreateCursor:      handleCreateCursor,
	proto.OpCreateGlyphCursor: handleCreateGlyphCursor,
	proto.OpFreeCursor:        handleFreeCursor,
	proto.OpRecolorCursor:     handleRecolorCursor,
	proto.OpQueryBestSize:     handleQueryBestSize,

	proto.OpQueryExtension: handleQueryExtension,
	proto.OpListExtensions: handleListExtensions,

	proto.OpChangeKeyboardMapping: handleChangeKeyboardMapping,
	proto.OpGetKeyboardMapping:    handleGetKeyboardMapping,
	proto.OpChangeKeyboardControl: handleChangeKeyboardControl,
	proto.OpGetKeyboardControl:    handleGetKeyboardControl,
	proto.OpBell:                  handleBell,
	proto.OpChangePointerControl:  handleChangePointerControl,
	proto.OpGetPointerControl:     handleGetPointerControl,
	proto.OpSetScreenSaver:        handleSetScreenSaver,
	proto.OpGetScreenSaver:        handleGetScreenSaver,
	proto.OpChangeHosts:           handleChangeHosts,
	proto.OpListHosts:             handleListHosts,
	proto.OpSetAccessControl:      handleSetAccessControl,
	proto.OpSetCloseDownMode:      handleSetCloseDownMode,
	proto.OpKillClient:            handleKillClient,
	proto.OpRotateProperties:      handleRotateProperties,
	proto.OpForceScreenSaver:      handleForceScreenSaver,
	proto.OpSetPointerMapping:     handleSetPointerMapping,
	proto.OpGetPointerMapping:     handleGetPointerMapping,
	proto.OpSetModifierMapping:    handleSetModifierMapping,
	proto.OpGetModifierMapping:    handleGetModifierMapping,
	proto.OpNoOperation:           handleNoOperation,
}

// init wires the one request BIG-REQUESTS contributes under its
// dynamically assigned major opcode (spec.md §4.8); the registry in
// internal/extension assigns that opcode deterministically at package
// init time, before this one runs.
func init() {
	registerExtensionOpcodes()
}
