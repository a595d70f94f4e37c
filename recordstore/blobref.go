package recordstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/hupe1980/blockcache/blobstore"
	"github.com/hupe1980/blockcache/structure"
)

// RootPrefix returns the blob name prefix shared by all payload versions
// of a root. Hashing keeps arbitrary root keys safe as object/file names.
func RootPrefix(root structure.Key) string {
	sum := sha256.Sum256([]byte(root))
	return hex.EncodeToString(sum[:8])
}

// BlobRef builds the blob name for a payload written at the given time.
// Names sort lexicographically by write time within a root's prefix, so
// pruning can order versions without reading blob metadata.
func BlobRef(root structure.Key, fields VersionFields, at time.Time) string {
	h := sha256.New()
	_, _ = io.WriteString(h, fields.DataVersion)
	h.Write([]byte{0})
	_, _ = io.WriteString(h, FormatTime(fields.DataEditTimestamp))
	h.Write([]byte{0})
	_, _ = io.WriteString(h, fields.TransformersSchemaVersion)
	h.Write([]byte{0})
	_, _ = io.WriteString(h, fields.BlockStructureSchemaVersion)
	sum := h.Sum(nil)

	return fmt.Sprintf("%s/%020d-%s.bsc", RootPrefix(root), at.UnixNano(), hex.EncodeToString(sum[:6]))
}

// PruneBlobs removes a root's payload blobs beyond the keep newest ones.
// It returns the number of blobs removed. Shared by all Store
// implementations; callers run it after the new record is durable.
func PruneBlobs(ctx context.Context, blobs blobstore.Store, root structure.Key, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}

	names, err := blobs.List(ctx, RootPrefix(root)+"/")
	if err != nil {
		return 0, err
	}
	if len(names) <= keep {
		return 0, nil
	}

	// Newest first; names embed the write time.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	removed := 0
	for _, name := range names[keep:] {
		if err := blobs.Delete(ctx, name); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// DeleteBlobs removes every payload blob stored under the root's prefix.
func DeleteBlobs(ctx context.Context, blobs blobstore.Store, root structure.Key) error {
	names, err := blobs.List(ctx, RootPrefix(root)+"/")
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := blobs.Delete(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
