package common

// File permission constants for everything trunkline writes under its data dir
const (
	// FilePermissionSecure is used for state the user should not share (target, session meta)
	FilePermissionSecure = 0600

	// FilePermissionNormal is used for delta files and exported output
	FilePermissionNormal = 0644

	// DirPermissionSecure is used for the per-project state directory
	DirPermissionSecure = 0700

	// DirPermissionNormal is used for session and delta directories
	DirPermissionNormal = 0755
)
