package config

const (
	defaultStateDir                      = "~/.local/share/fusionkit"
	defaultLogDir                        = "~/.local/share/fusionkit/logs"
	defaultTemplatesFile                 = "~/.config/fusionkit/templates.yml"
	defaultPublishDB                     = "~/.local/share/fusionkit/publishes.db"
	defaultLogFormat                     = "console"
	defaultLogLevel                      = "info"
	defaultMenuName                      = "Shotgun"
	defaultCompatibilityDialogMinVersion = 10
	wildcardPublishType                  = "*"
)

// DefaultExtensions lists the read node formats the host can load.
func DefaultExtensions() []string {
	return []string{
		".png", ".jpg", ".jpeg", ".exr", ".cin", ".dpx", ".tiff", ".tif",
		".mov", ".mp4", ".psd", ".tga", ".ari", ".gif", ".iff",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:      defaultStateDir,
			LogDir:        defaultLogDir,
			TemplatesFile: defaultTemplatesFile,
			PublishDB:     defaultPublishDB,
		},
		Engine: Engine{
			CompatibilityDialogMinVersion: defaultCompatibilityDialogMinVersion,
		},
		Loader: Loader{
			Extensions: DefaultExtensions(),
			Actions: map[string][]string{
				wildcardPublishType: {"read_node"},
			},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
