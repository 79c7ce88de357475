// Package editor holds the state of one open template: the block tree, the
// selection, an in-progress drag or resize and the derived HTML. It is the
// only caller of the block mutation functions and of the template store.
//
// A Session is driven by one actor and is not safe for concurrent use.
package editor

import (
	"context"
	"errors"
	"strings"

	"github.com/mailcanvas/mailcanvas/internal/domain"
	"github.com/mailcanvas/mailcanvas/pkg/blocks"
	"github.com/mailcanvas/mailcanvas/pkg/logger"
)

// ErrNameRequired is returned by Save when the template name is blank.
var ErrNameRequired = errors.New("template name is required")

// Store loads and saves templates. domain.TemplateService satisfies it.
type Store interface {
	GetTemplate(ctx context.Context, id string) (*domain.Template, error)
	UpdateTemplate(ctx context.Context, id, name, content string) (*domain.Template, error)
}

type ViewMode string

const (
	ViewPreview ViewMode = "preview"
	ViewCode    ViewMode = "code"
)

// DragSource is what is being dragged: an existing block, a palette
// entry or a preset layout. Exactly one field is set.
type DragSource struct {
	Block       *blocks.Location `json:"block,omitempty"`
	PaletteType blocks.BlockType `json:"paletteType,omitempty"`
	PresetKey   string           `json:"presetKey,omitempty"`
}

func (d DragSource) valid() bool {
	set := 0
	if d.Block != nil {
		set++
	}
	if d.PaletteType != "" {
		set++
	}
	if d.PresetKey != "" {
		set++
	}
	return set == 1
}

// Drag is an in-progress drag. Over is the drop-zone under the pointer:
// Over.Index is a drop-zone number in the list at Over.Path.
type Drag struct {
	Source DragSource       `json:"source"`
	Over   *blocks.Location `json:"over,omitempty"`
}

type activeResize struct {
	loc     blocks.Location
	session blocks.ResizeSession
}

type Session struct {
	store  Store
	logger logger.Logger

	id   string
	name string
	doc  []blocks.Block
	html string

	selection *blocks.Location
	drag      *Drag
	resize    *activeResize
	view      ViewMode
	device    blocks.Device
}

// NewSession returns a session holding an empty, unsaved document.
func NewSession(store Store, log logger.Logger) *Session {
	s := &Session{
		store:  store,
		logger: log,
		doc:    []blocks.Block{},
		view:   ViewPreview,
		device: blocks.DeviceDesktop,
	}
	s.refresh()
	return s
}

// Load replaces the document with the stored template. On error the
// session is left untouched and the store error is returned as is.
func (s *Session) Load(ctx context.Context, id string) error {
	template, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		s.logger.WithField("template_id", id).Debug("Template load failed")
		return err
	}

	s.id = template.ID
	s.name = template.Name
	s.doc = template.Blocks()
	s.selection = nil
	s.drag = nil
	s.resize = nil
	s.refresh()
	return nil
}

// Save writes the name and the serialized top-level blocks back to the
// store. A blank name is rejected before the store is called.
func (s *Session) Save(ctx context.Context) error {
	name := strings.TrimSpace(s.name)
	if name == "" {
		return ErrNameRequired
	}

	content, err := blocks.Serialize(s.doc)
	if err != nil {
		return err
	}

	if _, err := s.store.UpdateTemplate(ctx, s.id, name, content); err != nil {
		s.logger.WithField("template_id", s.id).Debug("Template save failed")
		return err
	}
	return nil
}

func (s *Session) ID() string   { return s.id }
func (s *Session) Name() string { return s.name }

func (s *Session) SetName(name string) {
	s.name = name
}

// Blocks returns the top-level blocks. Callers must not modify them.
func (s *Session) Blocks() []blocks.Block {
	return s.doc
}

func (s *Session) Document() blocks.Document {
	return blocks.Document{Name: s.name, Blocks: s.doc}
}

// HTML is the rendering of the current document.
func (s *Session) HTML() string {
	return s.html
}

func (s *Session) refresh() {
	s.html = blocks.Render(s.doc)
}

// setDocument installs a new tree and recomputes the HTML when it changed.
func (s *Session) setDocument(doc []blocks.Block) {
	s.doc = doc
	s.refresh()
}

// Selection

// Select selects the block at loc. It reports false, leaving the
// selection as it was, when loc addresses no block.
func (s *Session) Select(loc blocks.Location) bool {
	if _, ok := blocks.BlockAt(s.doc, loc); !ok {
		return false
	}
	s.selection = copyLocation(loc)
	return true
}

func (s *Session) ClearSelection() {
	s.selection = nil
}

// Selection returns a copy of the selected location, or nil.
func (s *Session) Selection() *blocks.Location {
	if s.selection == nil {
		return nil
	}
	return copyLocation(*s.selection)
}

// SelectedBlock returns the selected block.
func (s *Session) SelectedBlock() (blocks.Block, bool) {
	if s.selection == nil {
		return blocks.Block{}, false
	}
	return blocks.BlockAt(s.doc, *s.selection)
}

func copyLocation(loc blocks.Location) *blocks.Location {
	path := make(blocks.ListPath, len(loc.Path))
	copy(path, loc.Path)
	return &blocks.Location{Path: path, Index: loc.Index}
}

// Adding

// Add appends a palette block to the end of the document and returns its
// location. A columns block is selected right away.
func (s *Session) Add(t blocks.BlockType) blocks.Location {
	loc := blocks.ListPath{}.At(len(s.doc))
	s.insert(loc, []blocks.Block{blocks.DefaultBlock(t)})
	if t == blocks.TypeColumns {
		s.selection = copyLocation(loc)
	}
	return loc
}

// AddPreset appends a preset layout to the end of the document.
func (s *Session) AddPreset(key string) bool {
	preset, ok := blocks.Preset(key)
	if !ok {
		return false
	}
	s.insert(blocks.ListPath{}.At(len(s.doc)), preset)
	return true
}

func (s *Session) insert(at blocks.Location, bs []blocks.Block) bool {
	if _, ok := blocks.ListAt(s.doc, at.Path); !ok {
		return false
	}
	doc := blocks.InsertAt(s.doc, at.Path, at.Index, bs...)
	if len(bs) == 0 || sameList(doc, s.doc) {
		return false
	}
	if s.selection != nil {
		shifted := s.selection.AfterInsertion(at, len(bs))
		s.selection = &shifted
	}
	if s.resize != nil {
		s.resize.loc = s.resize.loc.AfterInsertion(at, len(bs))
	}
	s.setDocument(doc)
	return true
}

// sameList reports whether a copy-on-write operation returned its input.
func sameList(a, b []blocks.Block) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}

// Drag and drop

// BeginDrag starts a drag. It reports false when src is not exactly one
// of an existing block, a known palette type or a known preset.
func (s *Session) BeginDrag(src DragSource) bool {
	if !src.valid() {
		return false
	}
	switch {
	case src.Block != nil:
		if _, ok := blocks.BlockAt(s.doc, *src.Block); !ok {
			return false
		}
		src.Block = copyLocation(*src.Block)
	case src.PaletteType != "":
		if !blocks.IsValidType(src.PaletteType) {
			return false
		}
	default:
		if _, ok := blocks.Preset(src.PresetKey); !ok {
			return false
		}
	}
	s.drag = &Drag{Source: src}
	return true
}

// DragOver records the drop-zone under the pointer.
func (s *Session) DragOver(zone blocks.Location) {
	if s.drag == nil {
		return
	}
	s.drag.Over = copyLocation(zone)
}

// Drag returns the drag in progress, or nil.
func (s *Session) Drag() *Drag {
	return s.drag
}

// Drop applies the drag at the last recorded drop-zone and ends it.
// It reports whether the document changed.
func (s *Session) Drop() bool {
	drag := s.drag
	s.drag = nil
	if drag == nil || drag.Over == nil {
		return false
	}
	over := *drag.Over

	switch {
	case drag.Source.PaletteType != "":
		if !s.insert(over, []blocks.Block{blocks.DefaultBlock(drag.Source.PaletteType)}) {
			return false
		}
		if drag.Source.PaletteType == blocks.TypeColumns {
			s.selection = copyLocation(over)
		}
		return true

	case drag.Source.PresetKey != "":
		preset, ok := blocks.Preset(drag.Source.PresetKey)
		if !ok {
			return false
		}
		return s.insert(over, preset)

	default:
		return s.move(*drag.Source.Block, over)
	}
}

func (s *Session) move(from blocks.Location, over blocks.Location) bool {
	doc, dest, ok := blocks.Move(s.doc, from, over.Path, over.Index)
	if !ok {
		return false
	}
	if s.selection != nil && s.selection.Equal(from) {
		s.selection = copyLocation(dest)
	} else {
		s.selection = nil
	}
	s.resize = nil
	s.setDocument(doc)
	return true
}

func (s *Session) CancelDrag() {
	s.drag = nil
}

// Deleting and editing

// Delete removes the block at loc. A selection on or inside the removed
// block is cleared; a selection after it is shifted.
func (s *Session) Delete(loc blocks.Location) bool {
	if _, ok := blocks.BlockAt(s.doc, loc); !ok {
		return false
	}
	if s.selection != nil {
		if next, ok := s.selection.AfterRemoval(loc); ok {
			s.selection = &next
		} else {
			s.selection = nil
		}
	}
	if s.resize != nil {
		if next, ok := s.resize.loc.AfterRemoval(loc); ok {
			s.resize.loc = next
		} else {
			s.resize = nil
		}
	}
	s.setDocument(blocks.DeleteAt(s.doc, loc))
	return true
}

func (s *Session) DeleteSelected() bool {
	if s.selection == nil {
		return false
	}
	return s.Delete(*s.selection)
}

// Patch merges fields into the props of the block at loc. Patches that
// would produce invalid props are ignored and report false.
func (s *Session) Patch(loc blocks.Location, patch map[string]interface{}) bool {
	if _, ok := blocks.BlockAt(s.doc, loc); !ok {
		return false
	}
	doc := blocks.PatchAt(s.doc, loc, patch)
	if sameList(doc, s.doc) {
		return false
	}

	// shrinking a columns block can hide blocks in its dropped columns
	if s.selection != nil {
		if _, ok := blocks.BlockAt(doc, *s.selection); !ok {
			s.selection = nil
		}
	}
	if s.resize != nil {
		if _, ok := blocks.BlockAt(doc, s.resize.loc); !ok {
			s.resize = nil
		}
	}
	s.setDocument(doc)
	return true
}

func (s *Session) PatchSelected(patch map[string]interface{}) bool {
	if s.selection == nil {
		return false
	}
	return s.Patch(*s.selection, patch)
}

// Resizing

// BeginResize starts resizing the image at loc from handle h, capturing
// its current size as the baseline for every later ResizeTo.
func (s *Session) BeginResize(loc blocks.Location, h blocks.Handle) bool {
	b, ok := blocks.BlockAt(s.doc, loc)
	if !ok {
		return false
	}
	session, ok := blocks.BeginResize(b, h, s.CanvasWidth())
	if !ok {
		return false
	}
	s.resize = &activeResize{loc: *copyLocation(loc), session: session}
	return true
}

// ResizeTo applies the pointer delta measured from the start of the resize.
func (s *Session) ResizeTo(dx, dy float64) bool {
	if s.resize == nil {
		return false
	}
	s.setDocument(blocks.ResizeAt(s.doc, s.resize.loc, s.resize.session, dx, dy))
	return true
}

func (s *Session) EndResize() {
	s.resize = nil
}

// Resizing reports whether a resize is in progress.
func (s *Session) Resizing() bool {
	return s.resize != nil
}

// View

func (s *Session) SetViewMode(mode ViewMode) bool {
	if mode != ViewPreview && mode != ViewCode {
		return false
	}
	s.view = mode
	return true
}

func (s *Session) ViewMode() ViewMode {
	return s.view
}

// SetDevice changes the preview size. Unknown devices fall back to desktop.
func (s *Session) SetDevice(d blocks.Device) {
	switch d {
	case blocks.DeviceDesktop, blocks.DeviceTablet, blocks.DeviceMobile:
		s.device = d
	default:
		s.device = blocks.DeviceDesktop
	}
}

func (s *Session) Device() blocks.Device {
	return s.device
}

// CanvasWidth is the pixel width of the canvas for the current device.
func (s *Session) CanvasWidth() int {
	return blocks.DeviceWidth(s.device)
}
