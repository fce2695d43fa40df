// Package snapshot persists a frozen lease index as zstd-compressed JSON, so
// the query API can start without replaying the DHCP logs.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/MrSnakeDoc/leasetrail/internal/index"
)

// Version is the snapshot format written by Save.
const Version = 1

var ErrVersion = errors.New("unsupported snapshot version")

// Snapshot is the on-disk document.
type Snapshot struct {
	Version int       `json:"version"`
	Created time.Time `json:"created"`
	index.State
}

type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewCodec() (*Codec, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Codec{encoder: encoder, decoder: decoder}, nil
}

func (c *Codec) Close() {
	_ = c.encoder.Close()
	c.decoder.Close()
}

// Save writes st to fileName through a temporary file and a rename, so a
// reader never sees a partial snapshot.
func (c *Codec) Save(fileName string, st index.State) error {
	jsonData, err := json.Marshal(Snapshot{
		Version: Version,
		Created: time.Now().UTC(),
		State:   st,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data := c.encoder.EncodeAll(jsonData, make([]byte, 0, len(jsonData)/2))

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

// Load reads a snapshot written by Save. A missing file yields an error
// matching fs.ErrNotExist.
func (c *Codec) Load(fileName string) (*Snapshot, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot %s: %w", fileName, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", fileName, err)
	}
	if snap.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, snap.Version)
	}
	return &snap, nil
}
