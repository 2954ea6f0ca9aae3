package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/config"
	"github.com/bizzlechizzle/archivist-core/internal/hashing"
	"github.com/bizzlechizzle/archivist-core/internal/importpipeline"
	"github.com/bizzlechizzle/archivist-core/private/lifecycle"
)

// watchFolderItem builds the lifecycle.Item that runs one configured
// "watch this folder" import source: a FolderWatcher feeding settled
// files into a dedicated one-file import session against folder's
// LocationID.
func watchFolderItem(log *zap.Logger, session *importpipeline.Session, folder config.WatchFolderConfig, scanCeilingBytes int64) (lifecycle.Item, error) {
	name := "watch-folder-" + hashing.NewEntityID(folder.Dir)

	var watcher *importpipeline.FolderWatcher
	var err error
	watcher, err = importpipeline.NewFolderWatcher(log, func(path string) {
		sess := &store.ImportSession{
			ID:               hashing.NewEntityID(folder.Dir + ":" + path + ":" + time.Now().UTC().String()),
			TargetLocationID: folder.LocationID,
		}
		if _, err := session.Start(context.Background(), sess, []string{path}, scanCeilingBytes); err != nil {
			log.Error("watch folder import failed",
				zap.String("dir", folder.Dir), zap.String("path", path), zap.Error(err))
		}
	})
	if err != nil {
		return lifecycle.Item{}, err
	}
	if err := watcher.Add(folder.Dir); err != nil {
		return lifecycle.Item{}, err
	}

	return lifecycle.Item{
		Name:  name,
		Run:   watcher.Run,
		Close: watcher.Close,
	}, nil
}
