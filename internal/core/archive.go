package core

import (
	"bytes"
	"claimcore/internal/blob"
	"claimcore/internal/infra/persistence/jsonfile"
	"claimcore/internal/infra/persistence/memory"
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ArchiveKeyLayout names archived snapshots so that key order is chronological.
const ArchiveKeyLayout = "20060102T150405.000000000Z"

func archivePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// ArchiveSnapshot writes the current state as a snapshot document to
// <prefix>/<UTC timestamp>.json in store.
func (s *Service) ArchiveSnapshot(ctx context.Context, store blob.Store, prefix string) (info blob.Info, err error) {
	defer s.observe(ctx, "archive_snapshot", time.Now(), &err)
	snapshot := memory.Snapshot{
		Policyholders: make(map[string]Policyholder),
		Claims:        make(map[string]Claim),
	}
	if err = s.store.View(ctx, func(v TransactionView) error {
		for _, p := range v.ListPolicyholders() {
			snapshot.Policyholders[p.ID] = p
		}
		for _, c := range v.ListClaims() {
			snapshot.Claims[c.ID] = c
		}
		return nil
	}); err != nil {
		return blob.Info{}, err
	}

	var buf bytes.Buffer
	if err = jsonfile.EncodeSnapshot(&buf, snapshot); err != nil {
		return blob.Info{}, fmt.Errorf("encode snapshot: %w", err)
	}
	key := archivePrefix(prefix) + s.now().UTC().Format(ArchiveKeyLayout) + ".json"
	info, err = store.Put(ctx, key, &buf, blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"policyholders": strconv.Itoa(len(snapshot.Policyholders)),
			"claims":        strconv.Itoa(len(snapshot.Claims)),
		},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("archive snapshot: %w", err)
	}
	s.logger.Info("snapshot archived", zap.String("key", info.Key), zap.Int64("size_bytes", info.Size))
	return info, nil
}

// ListArchives returns archived snapshots under prefix, oldest first.
func ListArchives(ctx context.Context, store blob.Store, prefix string) ([]blob.Info, error) {
	p := archivePrefix(prefix)
	infos, err := store.List(ctx, p)
	if err != nil {
		return nil, err
	}
	out := make([]blob.Info, 0, len(infos))
	for _, info := range infos {
		rest := strings.TrimPrefix(info.Key, p)
		if strings.Contains(rest, "/") || path.Ext(rest) != ".json" {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

// PruneArchives deletes all but the newest keep archives under prefix and
// returns the deleted keys.
func PruneArchives(ctx context.Context, store blob.Store, prefix string, keep int) ([]string, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep must be non-negative, got %d", keep)
	}
	infos, err := ListArchives(ctx, store, prefix)
	if err != nil {
		return nil, err
	}
	if len(infos) <= keep {
		return []string{}, nil
	}
	deleted := make([]string, 0, len(infos)-keep)
	for _, info := range infos[:len(infos)-keep] {
		if _, err := store.Delete(ctx, info.Key); err != nil {
			return deleted, fmt.Errorf("delete %s: %w", info.Key, err)
		}
		deleted = append(deleted, info.Key)
	}
	return deleted, nil
}
