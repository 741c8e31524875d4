package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BucketName is the GridFS bucket holding all ward attachments.
const BucketName = "uploads"

// GridFSStore is the production BlobStore over a MongoDB GridFS bucket.
type GridFSStore struct {
	bucket *gridfs.Bucket
}

// NewGridFSStore opens the uploads bucket on the given database.
func NewGridFSStore(database *mongo.Database) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(database, options.GridFSBucket().SetName(BucketName))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &GridFSStore{bucket: bucket}, nil
}

func (s *GridFSStore) Store(_ context.Context, content io.Reader, meta ObjectMeta) (Handle, error) {
	md := bson.M{}
	if meta.ContentType != "" {
		md["contentType"] = meta.ContentType
	}
	for k, v := range meta.Tags {
		md[k] = v
	}

	id, err := s.bucket.UploadFromStream(meta.Name, content, options.GridFSUpload().SetMetadata(md))
	if err != nil {
		return "", errors.Join(ErrWriteFailed, err)
	}
	return Handle(id.Hex()), nil
}

func (s *GridFSStore) Open(_ context.Context, h Handle) (io.ReadCloser, error) {
	id, err := parseHandle(h)
	if err != nil {
		return nil, err
	}

	stream, err := s.bucket.OpenDownloadStream(id)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrReadFailed, err)
	}
	return stream, nil
}

func (s *GridFSStore) Delete(_ context.Context, h Handle) error {
	id, err := parseHandle(h)
	if err != nil {
		return err
	}

	if err := s.bucket.Delete(id); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrNotFound
		}
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}
