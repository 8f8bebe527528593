package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"options-trading/internal/model"
	"options-trading/pkg/logger"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Lifecycle folders. The folder a record lives in encodes its coarse status.
const (
	FolderNew            = "new"
	FolderPendingOpening = "pending-opening"
	FolderOpen           = "open"
	FolderPendingClosing = "pending-closing"
	FolderClosed         = "closed"
	FolderExpired        = "expired"
	FolderTemp           = "temp"
)

// ErrUnrepairable marks a record whose corruption survived every repair
// strategy. The file is left untouched for human review.
var ErrUnrepairable = errors.New("play record is corrupted beyond structural repair")

func LifecycleFolders() []string {
	return []string{
		FolderNew,
		FolderPendingOpening,
		FolderOpen,
		FolderPendingClosing,
		FolderClosed,
		FolderExpired,
		FolderTemp,
	}
}

type PlayStoreRepository interface {
	Load(ctx context.Context, folder, filename string) (*model.Play, error)
	Save(ctx context.Context, play *model.Play) error
	List(ctx context.Context, folder string) ([]string, error)
	Move(ctx context.Context, play *model.Play, toFolder string) error
	Remove(ctx context.Context, folder, filename string) error
	GetActivePlays(ctx context.Context) ([]model.Play, error)
	CheckAndFixAllPlays(ctx context.Context) (int, error)
}

type playStoreRepository struct {
	baseDir string
	log     *logger.Logger
	repair  *playRepairer
}

func NewPlayStoreRepository(baseDir string, log *logger.Logger) (PlayStoreRepository, error) {
	for _, folder := range LifecycleFolders() {
		if err := os.MkdirAll(filepath.Join(baseDir, folder), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create lifecycle folder %s: %w", folder, err)
		}
	}
	r := &playStoreRepository{
		baseDir: baseDir,
		log:     log,
	}
	r.repair = newPlayRepairer(r, log)
	return r, nil
}

func (r *playStoreRepository) path(folder, filename string) string {
	return filepath.Join(r.baseDir, folder, filename)
}

// Load reads one play record, routing corrupted content through structural
// repair before any caller sees it.
func (r *playStoreRepository) Load(ctx context.Context, folder, filename string) (*model.Play, error) {
	path := r.path(folder, filename)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read play record %s: %w", filename, err)
	}

	repaired := false
	if reason := detectCorruption(raw); reason != corruptionNone {
		r.log.WarnContext(ctx, "Corrupted play record detected",
			logger.StringField("filename", filename),
			logger.StringField("folder", folder),
			logger.StringField("reason", string(reason)),
		)
		fixed, err := r.repair.Repair(raw, reason)
		if err != nil {
			r.log.ErrorContextWithAlert(ctx, "Play record is unrepairable, leaving untouched",
				logger.StringField("filename", filename),
				logger.ErrorField(err),
			)
			return nil, fmt.Errorf("%w: %s", ErrUnrepairable, filename)
		}
		raw = fixed
		repaired = true
	}

	play, err := decodePlay(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode play record %s: %w", filename, err)
	}
	play.Filename = filename
	play.Folder = folder

	if repaired {
		play.Integrity = false
		if err := r.Save(ctx, play); err != nil {
			return nil, fmt.Errorf("failed to persist repaired record %s: %w", filename, err)
		}
		r.log.InfoContext(ctx, "Play record repaired",
			logger.StringField("filename", filename),
			logger.StringField("folder", folder),
		)
	}
	return play, nil
}

// decodePlay unmarshals a record. Records written before the integrity flag
// existed are treated as intact.
func decodePlay(raw []byte) (*model.Play, error) {
	var play model.Play
	if err := json.Unmarshal(raw, &play); err != nil {
		return nil, err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, err
	}
	if _, ok := keys["integrity"]; !ok {
		play.Integrity = true
	}
	return &play, nil
}

// Save writes the record atomically: new content goes to the temp folder
// first and is renamed into place, so a concurrent reader never observes a
// partial write.
func (r *playStoreRepository) Save(ctx context.Context, play *model.Play) error {
	if play.Filename == "" || play.Folder == "" {
		return fmt.Errorf("play record has no filename or folder")
	}
	data, err := json.MarshalIndent(play, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal play %s: %w", play.Filename, err)
	}

	tmpPath := r.path(FolderTemp, play.Filename+".tmp")
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temp record: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp record: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp record: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp record: %w", err)
	}
	if err := os.Rename(tmpPath, r.path(play.Folder, play.Filename)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace record %s: %w", play.Filename, err)
	}
	return nil
}

func (r *playStoreRepository) List(ctx context.Context, folder string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.baseDir, folder))
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %s: %w", folder, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Move relocates a record to another lifecycle folder.
func (r *playStoreRepository) Move(ctx context.Context, play *model.Play, toFolder string) error {
	if play.Folder == toFolder {
		return nil
	}
	oldPath := r.path(play.Folder, play.Filename)
	newPath := r.path(toFolder, play.Filename)
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("failed to move record %s from %s to %s: %w", play.Filename, play.Folder, toFolder, err)
	}
	r.log.InfoContext(ctx, "Play record moved",
		logger.StringField("filename", play.Filename),
		logger.StringField("from", play.Folder),
		logger.StringField("to", toFolder),
	)
	play.Folder = toFolder
	return nil
}

func (r *playStoreRepository) Remove(ctx context.Context, folder, filename string) error {
	if err := os.Remove(r.path(folder, filename)); err != nil {
		return fmt.Errorf("failed to remove record %s: %w", filename, err)
	}
	return nil
}

// GetActivePlays loads every play the orchestration cycle must evaluate.
// Unrepairable records are skipped, not fatal for the sweep.
func (r *playStoreRepository) GetActivePlays(ctx context.Context) ([]model.Play, error) {
	var plays []model.Play
	for _, folder := range []string{FolderNew, FolderPendingOpening, FolderOpen, FolderPendingClosing} {
		names, err := r.List(ctx, folder)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			play, err := r.Load(ctx, folder, name)
			if err != nil {
				r.log.ErrorContext(ctx, "Skipping unloadable play record",
					logger.StringField("filename", name),
					logger.StringField("folder", folder),
					logger.ErrorField(err),
				)
				continue
			}
			plays = append(plays, *play)
		}
	}
	return plays, nil
}

// CheckAndFixAllPlays sweeps every lifecycle folder and repairs whatever it
// can. It returns how many records were actually fixed; running it again on
// a clean store returns 0.
func (r *playStoreRepository) CheckAndFixAllPlays(ctx context.Context) (int, error) {
	fixed := 0
	for _, folder := range LifecycleFolders() {
		names, err := r.List(ctx, folder)
		if err != nil {
			return fixed, err
		}
		for _, name := range names {
			path := r.path(folder, name)
			raw, err := os.ReadFile(path)
			if err != nil {
				return fixed, fmt.Errorf("failed to read %s: %w", name, err)
			}
			reason := detectCorruption(raw)
			if reason == corruptionNone {
				continue
			}
			repairedRaw, err := r.repair.Repair(raw, reason)
			if err != nil {
				r.log.ErrorContextWithAlert(ctx, "Unrepairable play record flagged for review",
					logger.StringField("filename", name),
					logger.StringField("folder", folder),
					logger.StringField("reason", string(reason)),
				)
				continue
			}
			play, err := decodePlay(repairedRaw)
			if err != nil {
				r.log.ErrorContextWithAlert(ctx, "Repaired record still undecodable, leaving original untouched",
					logger.StringField("filename", name),
					logger.ErrorField(err),
				)
				continue
			}
			play.Filename = name
			play.Folder = folder
			play.Integrity = false
			if err := r.Save(ctx, play); err != nil {
				return fixed, err
			}
			fixed++
			r.log.InfoContext(ctx, "Fixed play record",
				logger.StringField("filename", name),
				logger.StringField("folder", folder),
				logger.StringField("reason", string(reason)),
			)
		}
	}
	return fixed, nil
}
