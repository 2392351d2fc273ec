package rbac

const (
	PermPackageBuild    = "package:build"
	PermPackageList     = "package:list"
	PermPackageDownload = "package:download"
	PermPackageInspect  = "package:inspect"
)

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"viewer": {
		PermPackageList,
		PermPackageDownload,
		PermPackageInspect,
	},
	"author": {
		"package:*",
	},
	"admin": {
		"*", // everything
	},
}
