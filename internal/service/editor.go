package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/asset"
	"github.com/sakif/portfolio/internal/model"
)

// StatusTTL is how long a status message stays visible.
const StatusTTL = 3 * time.Second

// ItemKind names an editable collection.
type ItemKind string

const (
	KindCertificate ItemKind = model.CollectionCertificates
	KindExperience  ItemKind = model.CollectionExperience
)

// ParseItemKind accepts the collection names used in admin URLs.
func ParseItemKind(s string) (ItemKind, error) {
	switch ItemKind(s) {
	case KindCertificate, KindExperience:
		return ItemKind(s), nil
	}
	return "", apperror.ValidationFailed("kind", "unknown collection "+s)
}

// EditorState is what the admin page renders.
type EditorState struct {
	Hero               model.Hero          `json:"hero"`
	Certificates       []model.Certificate `json:"certificates"`
	Experience         []model.Experience  `json:"experience"`
	CV                 model.CV            `json:"cv"`
	Footer             model.Footer        `json:"footer"`
	EditingCertificate string              `json:"editingCertificate"`
	EditingExperience  string              `json:"editingExperience"`
	Status             string              `json:"status"`
}

// Editor is the admin's working copy of the content for one session.
//
// Every operation writes straight to the store; there is no retry and the
// last write wins. mu only guards the local copy and is never held across a
// store or upload round trip, so two requests from the same admin can
// interleave and the later response decides the local state.
type Editor struct {
	content  *ContentService
	gate     *SessionGate
	uploader asset.Uploader
	logger   *slog.Logger
	now      func() time.Time

	mu           sync.Mutex
	hero         model.Hero
	certificates []model.Certificate
	experience   []model.Experience
	cv           model.CV
	footer       model.Footer
	editingCert  string
	editingExp   string
	status       string
	statusAt     time.Time
}

func NewEditor(content *ContentService, gate *SessionGate, uploader asset.Uploader, logger *slog.Logger) *Editor {
	if uploader == nil {
		uploader = asset.Disabled{}
	}
	return &Editor{
		content:      content,
		gate:         gate,
		uploader:     uploader,
		logger:       logger,
		now:          time.Now,
		certificates: []model.Certificate{},
		experience:   []model.Experience{},
	}
}

// LoadAll fetches the five sections. A failing section is logged and keeps
// its previous value; the rest still load. Missing singletons leave the
// form empty rather than showing the public fallback.
func (e *Editor) LoadAll(ctx context.Context) {
	if v, found, err := e.content.Hero.Load(ctx); err != nil {
		e.logLoadError("hero", err)
	} else if found {
		e.mu.Lock()
		e.hero = v
		e.mu.Unlock()
	}

	if v, err := e.content.Certificates.List(ctx); err != nil {
		e.logLoadError("certificates", err)
	} else {
		e.mu.Lock()
		e.certificates = v
		e.mu.Unlock()
	}

	if v, err := e.content.Experience.List(ctx); err != nil {
		e.logLoadError("experience", err)
	} else {
		e.mu.Lock()
		e.experience = v
		e.mu.Unlock()
	}

	if v, found, err := e.content.CV.Load(ctx); err != nil {
		e.logLoadError("cv", err)
	} else if found {
		e.mu.Lock()
		e.cv = v
		e.mu.Unlock()
	}

	if v, found, err := e.content.Footer.Load(ctx); err != nil {
		e.logLoadError("footer", err)
	} else if found {
		e.mu.Lock()
		e.footer = v
		e.mu.Unlock()
	}
}

func (e *Editor) logLoadError(section string, err error) {
	e.logger.Error("editor: loading section",
		slog.String("section", section),
		slog.String("error", err.Error()),
	)
}

// ---- singletons ----

// SaveHero replaces the local hero and overwrites the stored document.
// The local copy is not rolled back when the write fails.
func (e *Editor) SaveHero(ctx context.Context, h model.Hero) error {
	e.mu.Lock()
	e.hero = h
	e.mu.Unlock()
	return e.saveResult(e.content.Hero.Save(ctx, h), "Hero saved!", "Error saving hero")
}

func (e *Editor) SaveFooter(ctx context.Context, f model.Footer) error {
	e.mu.Lock()
	e.footer = f
	e.mu.Unlock()
	return e.saveResult(e.content.Footer.Save(ctx, f), "Footer saved!", "Error saving footer")
}

func (e *Editor) SaveCV(ctx context.Context, cv model.CV) error {
	e.mu.Lock()
	e.cv = cv
	e.mu.Unlock()
	return e.saveResult(e.content.CV.Save(ctx, cv), "CV saved!", "Error saving CV")
}

func (e *Editor) saveResult(err error, ok, failed string) error {
	if err != nil {
		e.logger.Error("editor: "+failed, slog.String("error", err.Error()))
		e.setStatus(failed)
		return storeError(err)
	}
	e.setStatus(ok)
	return nil
}

// ---- certificates ----

// CreateCertificate adds a certificate with placeholder text and opens it
// for editing.
func (e *Editor) CreateCertificate(ctx context.Context) (model.Certificate, error) {
	c, err := e.content.Certificates.Create(ctx, model.NewCertificate(e.now()))
	if err != nil {
		return c, e.fail("Error adding certificate", err)
	}

	e.mu.Lock()
	e.certificates = append(e.certificates, c)
	e.editingCert = c.ID
	e.mu.Unlock()
	return c, nil
}

// UpdateCertificate writes every field but the id and closes the editor.
func (e *Editor) UpdateCertificate(ctx context.Context, c model.Certificate) error {
	if err := e.content.Certificates.Update(ctx, c); err != nil {
		return e.fail("Error updating certificate", err)
	}

	e.mu.Lock()
	replaceByID(e.certificates, c, func(x model.Certificate) string { return x.ID })
	e.editingCert = ""
	e.mu.Unlock()

	e.setStatus("Certificate updated!")
	return nil
}

func (e *Editor) DeleteCertificate(ctx context.Context, id string) error {
	if err := e.content.Certificates.Delete(ctx, id); err != nil {
		return e.fail("Error deleting certificate", err)
	}

	e.mu.Lock()
	e.certificates = removeByID(e.certificates, id, func(x model.Certificate) string { return x.ID })
	if e.editingCert == id {
		e.editingCert = ""
	}
	e.mu.Unlock()

	e.setStatus("Certificate deleted!")
	return nil
}

// ---- experience ----

func (e *Editor) CreateExperience(ctx context.Context) (model.Experience, error) {
	x, err := e.content.Experience.Create(ctx, model.NewExperience())
	if err != nil {
		return x, e.fail("Error adding experience", err)
	}

	e.mu.Lock()
	e.experience = append(e.experience, x)
	e.editingExp = x.ID
	e.mu.Unlock()
	return x, nil
}

func (e *Editor) UpdateExperience(ctx context.Context, x model.Experience) error {
	if err := e.content.Experience.Update(ctx, x); err != nil {
		return e.fail("Error updating experience", err)
	}

	e.mu.Lock()
	replaceByID(e.experience, x, func(v model.Experience) string { return v.ID })
	e.editingExp = ""
	e.mu.Unlock()

	e.setStatus("Experience updated!")
	return nil
}

func (e *Editor) DeleteExperience(ctx context.Context, id string) error {
	if err := e.content.Experience.Delete(ctx, id); err != nil {
		return e.fail("Error deleting experience", err)
	}

	e.mu.Lock()
	e.experience = removeByID(e.experience, id, func(v model.Experience) string { return v.ID })
	if e.editingExp == id {
		e.editingExp = ""
	}
	e.mu.Unlock()

	e.setStatus("Experience deleted!")
	return nil
}

// ---- edit slots ----

// BeginEdit moves an item of kind into Editing. Only one item per kind can
// be edited at a time; opening another replaces the slot.
func (e *Editor) BeginEdit(kind ItemKind, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch kind {
	case KindCertificate:
		if !containsID(e.certificates, id, func(x model.Certificate) string { return x.ID }) {
			return apperror.NotFound(string(kind), id)
		}
		e.editingCert = id
	case KindExperience:
		if !containsID(e.experience, id, func(x model.Experience) string { return x.ID }) {
			return apperror.NotFound(string(kind), id)
		}
		e.editingExp = id
	default:
		return apperror.ValidationFailed("kind", "unknown collection "+string(kind))
	}
	return nil
}

// CancelEdit returns kind to Viewing without writing anything.
func (e *Editor) CancelEdit(kind ItemKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch kind {
	case KindCertificate:
		e.editingCert = ""
	case KindExperience:
		e.editingExp = ""
	default:
		return apperror.ValidationFailed("kind", "unknown collection "+string(kind))
	}
	return nil
}

// ---- uploads ----

// UploadHeroImage uploads an image and points the local hero at it.
// The new URL is stored on the next SaveHero.
func (e *Editor) UploadHeroImage(ctx context.Context, file io.Reader, info asset.FileInfo) (*asset.Result, error) {
	res, err := e.upload(ctx, file, info, asset.KindImage, "Uploading...")
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.hero.ImageURL = res.SecureURL
	e.mu.Unlock()

	e.setStatus("Uploaded!")
	return res, nil
}

// UploadCertificateImage sets the image of a local certificate. The
// certificate must already be in the editor's list.
func (e *Editor) UploadCertificateImage(ctx context.Context, id string, file io.Reader, info asset.FileInfo) (*asset.Result, error) {
	e.mu.Lock()
	known := containsID(e.certificates, id, func(x model.Certificate) string { return x.ID })
	e.mu.Unlock()
	if !known {
		return nil, apperror.NotFound(model.CollectionCertificates, id)
	}

	res, err := e.upload(ctx, file, info, asset.KindImage, "Uploading...")
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	for i := range e.certificates {
		if e.certificates[i].ID == id {
			e.certificates[i].ImageURL = res.SecureURL
		}
	}
	e.mu.Unlock()

	e.setStatus("Uploaded!")
	return res, nil
}

// UploadCV uploads the résumé as a raw asset and records its file name.
func (e *Editor) UploadCV(ctx context.Context, file io.Reader, info asset.FileInfo) (*asset.Result, error) {
	res, err := e.upload(ctx, file, info, asset.KindRaw, "Uploading CV...")
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cv = model.CV{CVURL: res.SecureURL, FileName: info.Name}
	e.mu.Unlock()

	e.setStatus("CV uploaded!")
	return res, nil
}

func (e *Editor) upload(ctx context.Context, file io.Reader, info asset.FileInfo, kind asset.Kind, pending string) (*asset.Result, error) {
	e.setStatus(pending)

	res, err := e.uploader.Upload(ctx, file, info, kind)
	if err != nil {
		e.logger.Error("editor: upload failed",
			slog.String("file", info.Name),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		e.setStatus("Upload failed")
		if !errors.Is(err, apperror.ErrUploadFailed) {
			err = apperror.UploadFailed("Upload failed", err)
		}
		return nil, err
	}
	return res, nil
}

// ---- security ----

// ChangePassword validates and stores a new admin password. Validation
// failures show their own message as the status.
func (e *Editor) ChangePassword(ctx context.Context, newPassword, confirm string) error {
	err := e.gate.ChangePassword(ctx, newPassword, confirm)
	switch {
	case err == nil:
		e.setStatus("Password updated!")
	case errors.Is(err, apperror.ErrValidation):
		e.setStatus(err.Error())
	default:
		e.logger.Error("editor: updating password", slog.String("error", err.Error()))
		e.setStatus("Error updating password")
	}
	return err
}

// ---- state ----

// Snapshot copies the current state. The status is blank once StatusTTL
// has passed since it was last set.
func (e *Editor) Snapshot() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := EditorState{
		Hero:               e.hero,
		Certificates:       append([]model.Certificate(nil), e.certificates...),
		Experience:         append([]model.Experience(nil), e.experience...),
		CV:                 e.cv,
		Footer:             e.footer,
		EditingCertificate: e.editingCert,
		EditingExperience:  e.editingExp,
	}
	if s.Certificates == nil {
		s.Certificates = []model.Certificate{}
	}
	if s.Experience == nil {
		s.Experience = []model.Experience{}
	}
	if e.status != "" && e.now().Sub(e.statusAt) < StatusTTL {
		s.Status = e.status
	}
	return s
}

func (e *Editor) setStatus(msg string) {
	e.mu.Lock()
	e.status = msg
	e.statusAt = e.now()
	e.mu.Unlock()
}

func (e *Editor) fail(status string, err error) error {
	e.logger.Error("editor: "+status, slog.String("error", err.Error()))
	e.setStatus(status)
	return storeError(err)
}

// storeError keeps domain errors (not found, validation) and reports
// anything else as a connection problem.
func storeError(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Connection(err)
}

func replaceByID[T any](items []T, v T, idOf func(T) string) {
	for i := range items {
		if idOf(items[i]) == idOf(v) {
			items[i] = v
			return
		}
	}
}

func removeByID[T any](items []T, id string, idOf func(T) string) []T {
	out := items[:0:0]
	for _, it := range items {
		if idOf(it) != id {
			out = append(out, it)
		}
	}
	return out
}

func containsID[T any](items []T, id string, idOf func(T) string) bool {
	for _, it := range items {
		if idOf(it) == id {
			return true
		}
	}
	return false
}
