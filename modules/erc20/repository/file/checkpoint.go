package file

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/modules/erc20/datagateway"
)

const DefaultPath = "current_block"

var _ datagateway.CheckpointDataGateway = (*CheckpointRepository)(nil)

// CheckpointRepository stores the checkpoint as a decimal number in a plain text file.
type CheckpointRepository struct {
	mu   sync.Mutex
	path string
}

func NewCheckpointRepository(path string) *CheckpointRepository {
	return &CheckpointRepository{
		path: utils.Default(path, DefaultPath),
	}
}

func (r *CheckpointRepository) GetCheckpoint(ctx context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	content, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, errors.WithStack(errs.NotFound)
		}
		return 0, errors.Wrapf(err, "can't read checkpoint file %s", r.path)
	}
	blockNumber, err := strconv.ParseUint(strings.TrimSpace(string(content)), 10, 64)
	if err != nil {
		return 0, errors.Join(errors.Wrapf(err, "invalid checkpoint file %s", r.path), errs.Configuration)
	}
	return blockNumber, nil
}

// SetCheckpoint replaces the checkpoint file atomically. The content is synced to disk
// before the rename, so a crash leaves either the previous or the new checkpoint.
func (r *CheckpointRepository) SetCheckpoint(ctx context.Context, blockNumber uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "can't create temporary checkpoint file")
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.WriteString(strconv.FormatUint(blockNumber, 10)); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "can't write temporary checkpoint file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "can't sync temporary checkpoint file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "can't close temporary checkpoint file")
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return errors.Wrapf(err, "can't replace checkpoint file %s", r.path)
	}
	return nil
}
