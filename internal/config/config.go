// Package config holds the server's YAML-tagged security policy and the
// loader that reads it, following internal/config.Load's own
// read-file-then-yaml.Unmarshal shape from the donor repo.
package config

// SecurityPolicy gates the behaviors the Rust original's src/security/mod.rs
// ties to three named bundles: whether TCP is bound at all, whether
// override-redirect windows bypass normal stacking/focus rules, and
// whether ChangeWindowAttributes may retarget a window owned by another
// client.
type SecurityPolicy struct {
	Name                     string `yaml:"name"`
	AllowTCP                 bool   `yaml:"allow_tcp"`
	HonorOverrideRedirect    bool   `yaml:"honor_override_redirect"`
	AllowCrossClientAttrs    bool   `yaml:"allow_cross_client_attrs"`
}

// Permissive matches a typical development Xvfb-style server: TCP open,
// override-redirect honored, clients may poke each other's windows.
func Permissive() SecurityPolicy {
	return SecurityPolicy{
		Name:                  "permissive",
		AllowTCP:              true,
		HonorOverrideRedirect: true,
		AllowCrossClientAttrs: true,
	}
}

// Default is a middle-ground bundle: TCP disabled (local-stream socket
// only), override-redirect honored, cross-client attribute changes
// rejected with BadAccess.
func Default() SecurityPolicy {
	return SecurityPolicy{
		Name:                  "default",
		AllowTCP:              false,
		HonorOverrideRedirect: true,
		AllowCrossClientAttrs: false,
	}
}

// Strict disables TCP, ignores override-redirect requests, and rejects
// any cross-client attribute change.
func Strict() SecurityPolicy {
	return SecurityPolicy{
		Name:                  "strict",
		AllowTCP:              false,
		HonorOverrideRedirect: false,
		AllowCrossClientAttrs: false,
	}
}

// Builtins mirrors internal/config.BuiltinLayouts's role: a fixed,
// always-available set of named bundles a user never has to define in
// YAML themselves.
func Builtins() map[string]SecurityPolicy {
	return map[string]SecurityPolicy{
		"permissive": Permissive(),
		"default":    Default(),
		"strict":     Strict(),
	}
}
