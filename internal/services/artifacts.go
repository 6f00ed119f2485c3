package services

import (
	"bytes"
	"context"

	"github.com/openattest/certgen-backend/internal/batch"
	"github.com/openattest/certgen-backend/internal/clients/gcp"
)

// bucketArtifactStore adapts the GCS bucket client to the batch
// controller's ArtifactStore.
type bucketArtifactStore struct {
	bucket gcp.BucketService
}

func NewBucketArtifactStore(bucket gcp.BucketService) batch.ArtifactStore {
	return &bucketArtifactStore{bucket: bucket}
}

func (s *bucketArtifactStore) Put(ctx context.Context, key string, blob []byte) (string, error) {
	if err := s.bucket.UploadFile(ctx, gcp.BucketCategoryArtifact, key, bytes.NewReader(blob)); err != nil {
		return "", err
	}
	return s.bucket.GetPublicURL(gcp.BucketCategoryArtifact, key), nil
}
