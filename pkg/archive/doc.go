// Package archive stores compiled knitout programs in Redis so that a
// program sent to the machine can be found again later by ID or by the
// content digest of its instruction stream.
//
// # Layout
//
// Every key and channel is namespaced so that several workshops can share
// one Redis server:
//
//	jacquard:{namespace}:program:{id}                 hash, one per program
//	jacquard:{namespace}:program_by_digest:{digest}   string, digest -> id
//	jacquard:{namespace}:programs                     zset, id scored by created_at_ms
//	jacquard:{namespace}:program_events               pub/sub channel
//
// Programs are immutable. Saving a program whose digest is already archived
// returns the existing record instead of writing a duplicate, so compiling
// the same pattern twice never grows the archive.
//
// # Usage Example
//
//	client, err := archive.NewClientFromURL("redis://localhost:6379/0", "default")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	stored, created, err := client.SaveProgram(ctx, &archive.Program{
//		ID:           uuid.NewString(),
//		Digest:       prog.Digest(),
//		Name:         "scarf",
//		Width:        120,
//		Height:       400,
//		Carriers:     []int{1, 6},
//		Instructions: prog.Len(),
//		Knitout:      prog.String(),
//		CreatedAtMs:  time.Now().UnixMilli(),
//	})
package archive
