package chain

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/bsdl"
	"github.com/OpenTraceLab/OpenTraceTAP/pkg/idcode"
)

// Repository knows how to look up BSDL files for a given device ID code.
type Repository interface {
	Lookup(id uint32) (*bsdl.BSDLFile, error)
}

// MemoryRepository keeps parsed descriptions in memory. Exact IDCODEs are
// matched first, then descriptions with wildcard bits in the order they were
// added.
type MemoryRepository struct {
	mu        sync.RWMutex
	exact     map[uint32]repoEntry
	wildcards []repoEntry
	parser    *bsdl.Parser
}

type repoEntry struct {
	value uint32
	mask  uint32
	file  *bsdl.BSDLFile
	info  *bsdl.DeviceInfo
}

func (e repoEntry) matches(id uint32) bool {
	return id&e.mask == e.value&e.mask
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{exact: make(map[uint32]repoEntry)}
}

// Add registers a BSDL file under the provided IDCODE.
func (r *MemoryRepository) Add(id uint32, file *bsdl.BSDLFile) {
	var info *bsdl.DeviceInfo
	if file != nil && file.Entity != nil {
		info = file.Entity.GetDeviceInfo()
	}
	r.addEntry(repoEntry{value: id, mask: 0xFFFFFFFF, file: file, info: info})
}

// AddFile registers file under its IDCODE_REGISTER attribute. "X" digits in
// the attribute become wildcards; the parsed value and mask are returned.
func (r *MemoryRepository) AddFile(file *bsdl.BSDLFile) (uint32, uint32, error) {
	if file == nil || file.Entity == nil {
		return 0, 0, fmt.Errorf("chain: invalid BSDL file")
	}
	info := file.Entity.GetDeviceInfo()
	if info.IDCode == "" {
		return 0, 0, fmt.Errorf("chain: %s has no IDCODE_REGISTER", file.Entity.Name)
	}
	value, mask, err := parseIDCode(info.IDCode)
	if err != nil {
		return 0, 0, err
	}
	r.addEntry(repoEntry{value: value, mask: mask, file: file, info: info})
	return value, mask, nil
}

// AddSource parses an in-memory description and registers it.
func (r *MemoryRepository) AddSource(name, text string) error {
	parser, err := r.bsdlParser()
	if err != nil {
		return err
	}
	file, err := parser.Parse(name, strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("chain: parse %s: %w", name, err)
	}
	if _, _, err := r.AddFile(file); err != nil {
		return fmt.Errorf("chain: add %s: %w", name, err)
	}
	return nil
}

// Lookup implements the Repository interface.
func (r *MemoryRepository) Lookup(id uint32) (*bsdl.BSDLFile, error) {
	if entry, ok := r.find(id); ok {
		return entry.file, nil
	}
	decoded := idcode.ParseIDCode(id)
	mfr, _ := idcode.LookupManufacturer(decoded.ManufacturerCode)
	return nil, fmt.Errorf("chain: no BSDL for IDCODE 0x%08X (%s, part 0x%04X)", id, mfr.Name, decoded.PartNumber)
}

// DeviceInfo returns the attributes cached when the description was added,
// or nil for an unknown IDCODE.
func (r *MemoryRepository) DeviceInfo(id uint32) *bsdl.DeviceInfo {
	if entry, ok := r.find(id); ok {
		return entry.info
	}
	return nil
}

// Entities lists the names of every registered description, sorted.
func (r *MemoryRepository) Entities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for _, entry := range r.exact {
		names = append(names, entityName(entry.file))
	}
	for _, entry := range r.wildcards {
		names = append(names, entityName(entry.file))
	}
	sort.Strings(names)
	return names
}

// LoadFiles parses the provided file paths and adds each BSDL file to the
// repository.
func (r *MemoryRepository) LoadFiles(paths ...string) error {
	for _, path := range paths {
		if err := r.loadPath(path); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir recursively loads all .bsd/.bsdl/.bsm files from the provided
// directory.
func (r *MemoryRepository) LoadDir(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isBSDLFile(path) {
			return nil
		}
		return r.loadPath(path)
	})
}

func (r *MemoryRepository) loadPath(path string) error {
	parser, err := r.bsdlParser()
	if err != nil {
		return err
	}
	file, err := parser.ParseFile(path)
	if err != nil {
		return fmt.Errorf("chain: parse %s: %w", path, err)
	}
	if _, _, err := r.AddFile(file); err != nil {
		return fmt.Errorf("chain: add %s: %w", path, err)
	}
	return nil
}

func (r *MemoryRepository) bsdlParser() (*bsdl.Parser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.parser == nil {
		parser, err := bsdl.NewParser()
		if err != nil {
			return nil, err
		}
		r.parser = parser
	}
	return r.parser, nil
}

func (r *MemoryRepository) find(id uint32) (repoEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.exact[id]; ok {
		return entry, true
	}
	for _, entry := range r.wildcards {
		if entry.matches(id) {
			return entry, true
		}
	}
	return repoEntry{}, false
}

func (r *MemoryRepository) addEntry(entry repoEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.mask == 0xFFFFFFFF {
		r.exact[entry.value] = entry
		return
	}
	r.wildcards = append(r.wildcards, entry)
}

func entityName(file *bsdl.BSDLFile) string {
	if file == nil || file.Entity == nil {
		return ""
	}
	return file.Entity.Name
}

func isBSDLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bsd", ".bsdl", ".bsm":
		return true
	default:
		return false
	}
}
