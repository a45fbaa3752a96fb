package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/ebudnikov/dateguard/internal/database"
	"github.com/ebudnikov/dateguard/internal/duplicate"
	"github.com/ebudnikov/dateguard/internal/fingerprint"
)

// BulkOptions controls a bulk verification run.
type BulkOptions struct {
	// ProfileID limits the run to one profile. Zero means all profiles.
	ProfileID int64
	// UpdateHashes computes and persists missing fingerprints first.
	UpdateHashes bool
	// DeleteDuplicates removes exact-fingerprint duplicates, keeping the
	// earliest upload of each group.
	DeleteDuplicates bool
	// DryRun reports what would happen without writing anything.
	DryRun bool
	// Threshold overrides the pipeline threshold when positive.
	Threshold int
	// OnProgress, when set, is called after each checked photo.
	OnProgress func(current, total int)
}

// BulkSummary reports what a bulk verification run did.
type BulkSummary struct {
	Checked        int
	HashesComputed int
	WithDuplicates int
	Deleted        int
	Errors         int
}

// VerifyPhotos walks the photo corpus, optionally fills in missing
// fingerprints, reports photos with near-duplicates and optionally deletes
// exact duplicates. Per-photo failures are counted, not fatal.
func (p *Pipeline) VerifyPhotos(ctx context.Context, opts BulkOptions) (*BulkSummary, error) {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = p.threshold
	}

	photos, err := p.photos.ListPhotos(ctx, opts.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("listing photos: %w", err)
	}

	summary := &BulkSummary{}

	if opts.UpdateHashes {
		p.fillMissingHashes(ctx, photos, opts.DryRun, summary)
	}

	// Duplicate search is always scoped to the owning profile, even when
	// the run covers all profiles.
	byProfile := make(map[int64][]duplicate.Candidate)
	for _, photo := range photos {
		byProfile[photo.ProfileID] = append(byProfile[photo.ProfileID], duplicate.Candidate{
			ID:   photo.ID,
			Hash: photo.ImageHash,
		})
	}

	for i, photo := range photos {
		if photo.ImageHash != "" {
			matches, err := duplicate.FindSimilar(photo.ImageHash, byProfile[photo.ProfileID], photo.ID, threshold)
			if err != nil {
				log.Printf("verify: photo %d: %v", photo.ID, err)
				summary.Errors++
			} else if len(matches) > 0 {
				summary.WithDuplicates++
			}
		}
		summary.Checked++
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(photos))
		}
	}

	if opts.DeleteDuplicates {
		p.deleteExactDuplicates(ctx, photos, opts.DryRun, summary)
	}

	return summary, nil
}

// fillMissingHashes computes fingerprints for photos without one and updates
// the slice in place so the duplicate pass sees the fresh hashes.
func (p *Pipeline) fillMissingHashes(ctx context.Context, photos []database.Photo, dryRun bool, summary *BulkSummary) {
	for i := range photos {
		if photos[i].ImageHash != "" {
			continue
		}
		data, err := p.blobs.Read(ctx, photos[i].FileRef)
		if err != nil {
			log.Printf("verify: reading photo %d: %v", photos[i].ID, err)
			summary.Errors++
			continue
		}
		fp, err := fingerprint.Compute(data)
		if err != nil {
			log.Printf("verify: fingerprinting photo %d: %v", photos[i].ID, err)
			summary.Errors++
			continue
		}
		hash := fp.String()
		if !dryRun {
			if err := p.photos.SetFingerprint(ctx, photos[i].ID, hash); err != nil {
				log.Printf("verify: persisting fingerprint of photo %d: %v", photos[i].ID, err)
				summary.Errors++
				continue
			}
		}
		photos[i].ImageHash = hash
		summary.HashesComputed++
	}
}

// deleteExactDuplicates groups each profile's photos by identical
// fingerprint, keeps the earliest upload of each group and deletes the rest.
// Each group is removed in a single transaction. Grouping never crosses
// profiles: two users holding the same stock photo are not one group.
func (p *Pipeline) deleteExactDuplicates(ctx context.Context, photos []database.Photo, dryRun bool, summary *BulkSummary) {
	byID := make(map[int64]database.Photo, len(photos))
	byProfile := make(map[int64][]duplicate.Candidate)
	for _, photo := range photos {
		byID[photo.ID] = photo
		byProfile[photo.ProfileID] = append(byProfile[photo.ProfileID], duplicate.Candidate{
			ID:   photo.ID,
			Hash: photo.ImageHash,
		})
	}

	for profileID, candidates := range byProfile {
		for _, ids := range duplicate.GroupByHash(candidates) {
			group := make([]database.Photo, 0, len(ids))
			for _, id := range ids {
				group = append(group, byID[id])
			}
			sort.Slice(group, func(i, j int) bool {
				if group[i].UploadedAt.Equal(group[j].UploadedAt) {
					return group[i].ID < group[j].ID
				}
				return group[i].UploadedAt.Before(group[j].UploadedAt)
			})

			doomed := make([]int64, 0, len(group)-1)
			for _, photo := range group[1:] {
				doomed = append(doomed, photo.ID)
			}

			if dryRun {
				log.Printf("verify: would delete %d duplicate(s) of photo %d (profile %d)", len(doomed), group[0].ID, profileID)
				summary.Deleted += len(doomed)
				continue
			}

			if err := p.photos.DeletePhotos(ctx, doomed); err != nil {
				log.Printf("verify: deleting duplicates of photo %d: %v", group[0].ID, err)
				summary.Errors++
				continue
			}
			summary.Deleted += len(doomed)
		}
	}
}
