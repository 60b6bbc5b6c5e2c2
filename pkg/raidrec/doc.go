// Package raidrec watches World of Warcraft combat logs and delivers
// encounter and Mythic+ lifecycle events as they are written.
//
// The watcher locates the newest WoWCombatLog-*.txt file, follows it,
// and switches to a newer file when the game rotates logs:
//
//	watcher, err := raidrec.NewWatcher(
//		raidrec.WithLogDir("/path/to/Logs"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer watcher.Close()
//
//	events, errs, err := watcher.Watch(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for ev := range events {
//		fmt.Println(ev.Kind, ev.Fields)
//	}
//
// Line parsing and payload extraction live in the combatlog subpackage.
package raidrec
