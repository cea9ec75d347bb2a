package claims

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

const maxReferenceAttempts = 10000

// References issues claim references that are unique for the process lifetime.
// A reference is <PREFIX>-CLM-<yyyyMMddHHmmss>-<NNN>.
type References struct {
	mu     sync.Mutex
	used   map[string]struct{}
	now    func() time.Time
	suffix func() int
}

// NewReferences creates an empty registry. A nil now uses time.Now and a nil
// suffix draws uniformly from [0, 1000).
func NewReferences(now func() time.Time, suffix func() int) *References {
	if now == nil {
		now = time.Now
	}
	if suffix == nil {
		suffix = func() int { return rand.IntN(1000) }
	}
	return &References{
		used:   make(map[string]struct{}),
		now:    now,
		suffix: suffix,
	}
}

// Prefix returns the reference prefix for insurer.
func Prefix(insurer string) string {
	switch insurer {
	case InsurerAlpha:
		return "ALPHA"
	case InsurerBeta:
		return "BETA"
	case InsurerGamma:
		return "GAMMA"
	}
	return "CCT"
}

// Generate returns an unused reference without reserving it.
func (r *References) Generate(insurer string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generate(insurer)
}

// Ensure reserves preferred when it is non-empty and unused; otherwise it
// reserves a generated reference. The reserved reference is returned.
func (r *References) Ensure(preferred, insurer string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := strings.TrimSpace(preferred)
	if _, taken := r.used[ref]; ref == "" || taken {
		var err error
		if ref, err = r.generate(insurer); err != nil {
			return "", err
		}
	}
	r.used[ref] = struct{}{}
	return ref, nil
}

// Used reports whether ref has been reserved.
func (r *References) Used(ref string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.used[ref]
	return ok
}

func (r *References) generate(insurer string) (string, error) {
	prefix := Prefix(insurer)
	for range maxReferenceAttempts {
		stamp := r.now().UTC().Format("20060102150405")
		candidate := fmt.Sprintf("%s-CLM-%s-%03d", prefix, stamp, r.suffix()%1000)
		if _, taken := r.used[candidate]; !taken {
			return candidate, nil
		}
	}
	return "", ErrReferenceExhausted
}
