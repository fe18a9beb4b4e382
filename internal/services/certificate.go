package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/font"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/skillbase/skillbase-backend/internal/clients/gcp"
	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/repos"
	"github.com/skillbase/skillbase-backend/internal/types"
)

// CertificateService issues a course-completion certificate to a startup:
// one row per (startup, course), with a rendered PNG uploaded to the
// certificate bucket when rendering is available.
type CertificateService interface {
	IssueForStartup(ctx context.Context, tx *gorm.DB, startup *types.Startup, course *types.Course) (*types.IssuedCertificate, error)
}

type certificateService struct {
	db            *gorm.DB
	log           *logger.Logger
	certRepo      repos.IssuedCertificateRepo
	bucketService gcp.BucketService

	titleFace font.Face
	bodyFace  font.Face
}

func NewCertificateService(db *gorm.DB, baseLog *logger.Logger, certRepo repos.IssuedCertificateRepo, bucketService gcp.BucketService) CertificateService {
	serviceLog := baseLog.With("service", "CertificateService")

	svc := &certificateService{
		db:            db,
		log:           serviceLog,
		certRepo:      certRepo,
		bucketService: bucketService,
	}

	fontPath := strings.TrimSpace(os.Getenv("CERTIFICATE_FONT"))
	if fontPath == "" {
		serviceLog.Warn("Env var CERTIFICATE_FONT is empty, certificate images disabled")
		return svc
	}

	titleFace, err := loadFontFace(fontPath, 64)
	if err != nil {
		serviceLog.Warn("Could not load certificate font, certificate images disabled", "font", fontPath, "error", err)
		return svc
	}
	bodyFace, err := loadFontFace(fontPath, 32)
	if err != nil {
		serviceLog.Warn("Could not load certificate font, certificate images disabled", "font", fontPath, "error", err)
		return svc
	}

	svc.titleFace = titleFace
	svc.bodyFace = bodyFace
	return svc
}

func (s *certificateService) IssueForStartup(ctx context.Context, tx *gorm.DB, startup *types.Startup, course *types.Course) (*types.IssuedCertificate, error) {
	if startup == nil || course == nil {
		return nil, fmt.Errorf("startup and course required")
	}

	existing, err := s.certRepo.GetByStartupAndCourse(ctx, tx, startup.ID, course.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.log.Debug("Certificate already issued",
			"startup_id", startup.ID,
			"course_id", course.ID,
			"serial_number", existing.SerialNumber,
		)
		return existing, nil
	}

	now := time.Now().UTC()
	serial := newSerialNumber()

	cert := &types.IssuedCertificate{
		ID:           uuid.New(),
		StartupID:    startup.ID,
		CourseID:     course.ID,
		SerialNumber: serial,
		IssuedAt:     now,
	}

	if meta, err := json.Marshal(map[string]any{
		"startup_name": startup.Name,
		"course_title": course.Title,
	}); err == nil {
		cert.Metadata = datatypes.JSON(meta)
	}

	if s.canRender() && s.bucketService != nil {
		img, renderErr := s.renderCertificate(startup.Name, course.Title, serial, now)
		if renderErr != nil {
			s.log.Warn("Certificate render failed, issuing without image", "error", renderErr)
		} else {
			key := fmt.Sprintf("certificates/%s/%s.png", course.ID, cert.ID)
			if upErr := s.bucketService.UploadFile(ctx, key, img); upErr != nil {
				s.log.Warn("Certificate upload failed, issuing without image", "key", key, "error", upErr)
			} else {
				cert.ImageKey = key
				cert.ImageURL = s.bucketService.GetPublicURL(key)
			}
		}
	}

	if _, err := s.certRepo.Create(ctx, tx, []*types.IssuedCertificate{cert}); err != nil {
		return nil, err
	}

	s.log.Info("Certificate issued",
		"startup_id", startup.ID,
		"course_id", course.ID,
		"serial_number", serial,
	)
	return cert, nil
}

func (s *certificateService) canRender() bool {
	return s.titleFace != nil && s.bodyFace != nil
}

func (s *certificateService) renderCertificate(startupName, courseTitle, serial string, issuedAt time.Time) (*bytes.Buffer, error) {
	const width, height = 1400, 990

	dc := gg.NewContext(width, height)
	dc.SetColor(color.NRGBA{R: 0xFA, G: 0xF8, B: 0xF2, A: 0xFF})
	dc.Clear()

	dc.SetColor(color.NRGBA{R: 0x1F, G: 0x2A, B: 0x44, A: 0xFF})
	dc.SetLineWidth(10)
	dc.DrawRectangle(40, 40, width-80, height-80)
	dc.Stroke()

	dc.SetFontFace(s.titleFace)
	dc.DrawStringAnchored("Certificate of Completion", width/2, 220, 0.5, 0.5)

	dc.SetFontFace(s.bodyFace)
	dc.DrawStringAnchored("awarded to", width/2, 340, 0.5, 0.5)

	dc.SetFontFace(s.titleFace)
	dc.DrawStringAnchored(startupName, width/2, 460, 0.5, 0.5)

	dc.SetFontFace(s.bodyFace)
	dc.DrawStringAnchored("for completing", width/2, 580, 0.5, 0.5)
	dc.DrawStringAnchored(courseTitle, width/2, 660, 0.5, 0.5)
	dc.DrawStringAnchored(issuedAt.Format("January 2, 2006"), width/2, 790, 0.5, 0.5)
	dc.DrawStringAnchored("Serial: "+serial, width/2, 860, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

func newSerialNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "SB-" + strings.ToUpper(raw[:12])
}

func loadFontFace(path string, points float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: points}), nil
}
