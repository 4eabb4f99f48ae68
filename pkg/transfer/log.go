package transfer

import (
	"github.com/charmbracelet/log"
)

// LogListener logs transfer outcomes. Progress events are logged at debug
// level only.
type LogListener struct {
	Logger *log.Logger
}

// Transfer implements Listener.
func (l LogListener) Transfer(e Event) error {
	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}
	r := e.Resource
	switch e.Type {
	case Initiated:
		logger.Debug("downloading", "repository", r.RepositoryID, "resource", r.Name)
	case Progressed:
		logger.Debug("progress", "resource", r.Name, "bytes", e.Transferred, "total", r.ContentLength)
	case Corrupted:
		logger.Warn("checksum mismatch", "repository", r.RepositoryID, "resource", r.Name, "err", e.Err)
	case Succeeded:
		logger.Info("downloaded", "repository", r.RepositoryID, "resource", r.Name, "bytes", e.Transferred)
	case Failed:
		logger.Debug("download failed", "repository", r.RepositoryID, "resource", r.Name, "err", e.Err)
	}
	return nil
}
