package texture

import (
	"image"
	"sync"

	"go.uber.org/zap"

	"planar-reflection/internal/logging"
)

// Resolver resolves a material texture name to a decoded image.
type Resolver interface {
	Resolve(texName string) *image.NRGBA
}

// Cache decodes each indexed file at most once. A file that fails to
// decode is remembered as nil and logged once.
type Cache struct {
	index *Index

	mu     sync.Mutex
	images map[string]*image.NRGBA
	pend   map[string]*sync.WaitGroup
}

// NewCache returns an empty cache over index.
func NewCache(index *Index) *Cache {
	return &Cache{
		index:  index,
		images: make(map[string]*image.NRGBA),
		pend:   make(map[string]*sync.WaitGroup),
	}
}

// Resolve returns the decoded texture for texName, or nil when it is not
// indexed or cannot be decoded. Concurrent callers for the same file
// share a single decode.
func (c *Cache) Resolve(texName string) *image.NRGBA {
	if c == nil || c.index == nil {
		return nil
	}
	path, ok := c.index.ResolvePath(texName)
	if !ok {
		return nil
	}

	c.mu.Lock()
	if img, done := c.images[path]; done {
		c.mu.Unlock()
		return img
	}
	if wg, loading := c.pend[path]; loading {
		c.mu.Unlock()
		wg.Wait()
		return c.lookup(path)
	}
	wg := &sync.WaitGroup{}
	wg.Add(1)
	c.pend[path] = wg
	c.mu.Unlock()

	img, err := LoadTexture(path)
	if err != nil {
		logging.L().Named("texture").Warn("load failed",
			zap.String("name", texName), zap.String("path", path), zap.Error(err))
	}

	c.mu.Lock()
	c.images[path] = img
	delete(c.pend, path)
	c.mu.Unlock()
	wg.Done()
	return img
}

func (c *Cache) lookup(path string) *image.NRGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.images[path]
}

// Loaded returns the number of files a decode has finished for,
// successful or not.
func (c *Cache) Loaded() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}
