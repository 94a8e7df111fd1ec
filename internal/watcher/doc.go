// Package watcher reports changes under a triage root.
//
// It registers an fsnotify watch on the root and every directory below it,
// skipping hidden and vault directories the way the scanner does, and calls a
// callback once a burst of events has settled. It never modifies the tree.
//
// Example usage:
//
//	w := watcher.New(root, 2*time.Second, func() {
//		fmt.Println("tree changed")
//	})
//	if err := w.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package watcher
