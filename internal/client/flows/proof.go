package flows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/eventpass/internal/client/api"
	"github.com/dmitrijs2005/eventpass/internal/client/models"
	"github.com/dmitrijs2005/eventpass/internal/client/storage"
	"github.com/dmitrijs2005/eventpass/internal/logging"
)

// ProofService attaches proof images to a registration: the file goes to
// object storage and the server receives the full, extended URL list.
type ProofService struct {
	client   api.Client
	uploader storage.Uploader
	log      logging.Logger
	now      func() time.Time
}

func NewProofService(client api.Client, uploader storage.Uploader, log logging.Logger) *ProofService {
	return &ProofService{
		client:   client,
		uploader: uploader,
		log:      log.With("service", "proof"),
		now:      time.Now,
	}
}

// Upload sends the file at localPath and returns the registration as the
// server now sees it.
func (s *ProofService) Upload(ctx context.Context, reg models.Registration, localPath string) (*models.Registration, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", localPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", localPath)
	}

	contentType, err := detectContentType(f, localPath)
	if err != nil {
		return nil, err
	}

	key := storage.ObjectKey(storage.ProofsFolder, localPath, s.now())
	url, err := s.uploader.Upload(ctx, key, contentType, f, info.Size())
	if err != nil {
		s.log.Warn(ctx, "proof upload failed", "registration", reg.ID, "key", key, "error", err)
		return nil, err
	}

	images := make([]string, 0, len(reg.Images)+1)
	images = append(images, reg.Images...)
	images = append(images, url)

	updated, err := s.client.UpdateImages(ctx, reg.ID, images)
	if err != nil {
		s.log.Warn(ctx, "attaching proof failed", "registration", reg.ID, "url", url, "error", err)
		return nil, err
	}
	s.log.Info(ctx, "proof uploaded", "registration", reg.ID, "url", url)
	return updated, nil
}

// detectContentType goes by extension first and sniffs the head of the
// file otherwise, leaving f rewound.
func detectContentType(f *os.File, name string) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct, nil
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind %s: %w", name, err)
	}
	return http.DetectContentType(head[:n]), nil
}
