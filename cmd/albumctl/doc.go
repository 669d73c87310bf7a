// Command albumctl administers a photo-share data directory from the command line.
//
// Usage:
//
//	albumctl <command> [flags] [args]
//
// Commands:
//
//	create-admin       Create an admin registry and print its key.
//	create-collection  Create a collection (with its main and deleted albums) for an admin.
//	delete-collection  Delete a collection and its albums. Asks for confirmation unless -yes.
//	list               List the collections registered with an admin.
//	locks              List lock markers older than -older-than (default 10m).
//	unlock             Remove those markers. Asks for confirmation unless -yes.
//
// A lock marker is left behind when a server crashes while updating a document; until it is
// removed, updates to that document time out. Only run unlock while no server is writing.
//
// Environment:
//
//	DATA_DIR  Path to the data directory (default: /data). A .env file is honoured.
package main
