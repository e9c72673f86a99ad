package domain

import (
	"os"
	"path/filepath"
)

const (
	// CacheRootDirName is the directory under the system temp dir that holds
	// all cache scopes for this process tree.
	CacheRootDirName = "forge-cache"

	// TargetCacheExt is the file extension of per-target cache entries.
	TargetCacheExt = ".cache"

	// WorkerDirName is the directory that holds worker sockets and logs.
	WorkerDirName = "workers"

	// WorkerLogFile is the per-worker log file name.
	WorkerLogFile = "worker.log"

	// ProjectFileName is the default project file name.
	ProjectFileName = "forge.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600

	// SocketPerm is the permission for worker unix sockets (rw-------).
	SocketPerm = 0o600

	// EnvForwardProperties selects which properties out-of-process nodes
	// forward back for logged snapshots: a comma list, "*" for all, or unset
	// for none. It never affects build correctness.
	EnvForwardProperties = "FORGE_FORWARD_PROPERTIES"
)

// DefaultCacheRoot returns the physical cache root shared by every build
// manager in this process tree. Each manager owns its own scope subtree.
func DefaultCacheRoot() string {
	return filepath.Join(os.TempDir(), CacheRootDirName)
}

// WorkerDir returns the directory for worker runtime files under root.
func WorkerDir(root string) string {
	return filepath.Join(root, WorkerDirName)
}

// WorkerSocketPath returns the unix socket path for a worker id.
func WorkerSocketPath(root, id string) string {
	return filepath.Join(WorkerDir(root), id+".sock")
}
