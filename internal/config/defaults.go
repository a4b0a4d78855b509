package config

// DefaultPlugins are the cordova plugins every Ionic 1 app starts with.
var DefaultPlugins = []string{
	"cordova-plugin-device",
	"cordova-plugin-console",
	"cordova-plugin-whitelist",
	"cordova-plugin-splashscreen",
	"cordova-plugin-statusbar",
	"ionic-plugin-keyboard",
}

// GetDefaults returns the lowest priority configuration layer.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"cordova_cmd":             "cordova",
		"default_port":            8100,
		"default_livereload_port": 35729,
		"default_address":         "0.0.0.0",
		"plugins":                 append([]string(nil), DefaultPlugins...),
		"script_prefix":           "ionic:",
	}
}

// Defaults returns a Configuration holding only the default values.
func Defaults() *Configuration {
	return &Configuration{
		CordovaCmd:            "cordova",
		DefaultPort:           8100,
		DefaultLiveReloadPort: 35729,
		DefaultAddress:        "0.0.0.0",
		Plugins:               append([]string(nil), DefaultPlugins...),
		ScriptPrefix:          "ionic:",
	}
}
