package scene

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/mapstyle/pkg/cache"
	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/feature"
	"github.com/matzehuels/mapstyle/pkg/httputil"
	"github.com/matzehuels/mapstyle/pkg/source"
)

// Format is a scene file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a path or URL extension.
func FormatOf(location string) (Format, error) {
	p := location
	if u, err := url.Parse(location); err == nil && u.Scheme != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot tell scene format of %q", location)
}

// Decode parses a scene document. Unknown keys are errors in both formats.
func Decode(data []byte, format Format) (Config, error) {
	var cfg Config
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
		if err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, errors.New(errors.ErrCodeInvalidScene, "unknown keys: %v", undecoded)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && err != io.EOF {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode yaml")
		}
	default:
		return Config{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported scene format %q", format)
	}
	return cfg, nil
}

// Encode writes cfg in the given format.
func Encode(w io.Writer, cfg Config, format Format) error {
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(cfg)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported scene format %q", format)
}

// LoadOptions configure Load.
type LoadOptions struct {
	Fetcher *httputil.Fetcher
	Keyer   cache.Keyer
	Logger  *log.Logger
}

// ReadConfig reads and decodes the scene at location, a file path or an
// http(s) URL. It also returns the directory relative sources resolve against.
func ReadConfig(ctx context.Context, location string, opts LoadOptions) (Config, string, error) {
	if err := errors.ValidateScenePath(location); err != nil {
		return Config{}, "", err
	}
	format, err := FormatOf(location)
	if err != nil {
		return Config{}, "", err
	}

	var data []byte
	var base string
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		if opts.Fetcher == nil {
			opts.Fetcher = httputil.NewFetcher(nil)
		}
		if opts.Keyer == nil {
			opts.Keyer = cache.NewDefaultKeyer()
		}
		data, err = opts.Fetcher.Get(ctx, opts.Keyer.SceneKey(location), location)
		if err != nil {
			return Config{}, "", errors.Wrap(errors.ErrCodeNetwork, err, "fetch scene")
		}
		base = baseURL(location)
	} else {
		data, err = os.ReadFile(location)
		if os.IsNotExist(err) {
			return Config{}, "", errors.Wrap(errors.ErrCodeFileNotFound, err, "scene file")
		}
		if err != nil {
			return Config{}, "", err
		}
		base = filepath.Dir(location)
	}

	cfg, err := Decode(data, format)
	if err != nil {
		return Config{}, "", errors.Wrap(errors.ErrCodeInvalidScene, err, "%s", location)
	}
	return cfg, base, nil
}

// Load reads the scene at location, opens its sources and returns a ready scene.
func Load(ctx context.Context, location string, opts LoadOptions) (*Scene, error) {
	cfg, base, err := ReadConfig(ctx, location, opts)
	if err != nil {
		return nil, err
	}
	return Build(ctx, cfg, base, opts)
}

// Build creates a scene from cfg, fills every layer from its source and
// marks the scene ready.
func Build(ctx context.Context, cfg Config, baseDir string, opts LoadOptions) (*Scene, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s, err := New(cfg, WithLogger(logger))
	if err != nil {
		return nil, err
	}

	env := source.Env{BaseDir: baseDir, Fetcher: opts.Fetcher}
	for name, sc := range cfg.Sources {
		fs, err := readSource(ctx, sc, env)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "source %q", name)
		}
		logger.Debug("source loaded", "source", name, "type", sc.Type, "features", len(fs))
		if err := s.assign(name, fs); err != nil {
			return nil, err
		}
	}

	s.MarkReady()
	return s, nil
}

func readSource(ctx context.Context, cfg source.Config, env source.Env) ([]*feature.Feature, error) {
	src, err := source.Open(ctx, cfg, env)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return src.Features(ctx)
}

// assign distributes a source's features over the layers that read it.
func (s *Scene) assign(sourceName string, fs []*feature.Feature) error {
	for name, lc := range s.cfg.Layers {
		if lc.Source != sourceName {
			continue
		}
		var keep []*feature.Feature
		for _, f := range fs {
			if matches(f, lc.Filter) {
				keep = append(keep, f)
			}
		}
		if err := s.AddFeatures(name, keep...); err != nil {
			return err
		}
	}
	return nil
}

func matches(f *feature.Feature, filter map[string]string) bool {
	for k, want := range filter {
		v, ok := f.Properties[k]
		if !ok || fmt.Sprint(v) != want {
			return false
		}
	}
	return true
}

func baseURL(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	u.Path = path.Dir(u.Path)
	u.RawQuery = ""
	return u.String()
}
