package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/solipsis/go-bootenv/internal/release"
	"github.com/solipsis/go-bootenv/pkg/env"
	"github.com/solipsis/go-bootenv/pkg/keepkey"
	"github.com/solipsis/go-bootenv/pkg/memory"
	"github.com/solipsis/go-bootenv/pkg/setenvram"
)

// errNoMemory is returned by commands that cannot run without --mem
var errNoMemory = errors.New("no memory source given, use --mem")

// openMemory resolves the --mem flag. The returned func releases any device.
// Without --mem the reader is nil.
func openMemory(ctx context.Context) (memory.Reader, func(), error) {
	nop := func() {}
	base, err := setenvram.ParseHex(memBase)
	if err != nil {
		return nil, nop, fmt.Errorf("bad --base %q: %v", memBase, err)
	}

	switch {
	case memSource == "":
		// commands that never read memory still run; reads report unmapped addresses
		logger.Debug("no memory source given")
		return nil, nop, nil

	case memSource == "devmem":
		return memory.NewDevMem(), nop, nil

	case memSource == "keepkey":
		kk, err := keepkey.GetDevice(&keepkey.Config{Logger: logger, AutoButton: true})
		if err != nil {
			return nil, nop, err
		}
		return kk, kk.Close, nil

	case strings.HasPrefix(memSource, "github:"):
		ref, err := release.ParseRef(strings.TrimPrefix(memSource, "github:"))
		if err != nil {
			return nil, nop, err
		}
		logger.Infof("fetching %s", ref)
		data, err := release.Fetch(ctx, nil, ref)
		if err != nil {
			return nil, nop, err
		}
		return memory.NewBuffer(base, data), nop, nil
	}

	path, fileBase, err := memory.SplitBase(strings.TrimPrefix(memSource, "file:"))
	if err != nil {
		return nil, nop, err
	}
	if strings.Contains(memSource, "@") {
		base = fileBase
	}
	buf, err := memory.LoadImage(path, base)
	if err != nil {
		return nil, nop, err
	}
	logger.Infof("loaded %s at 0x%x-0x%x", path, buf.Base, buf.End())
	return buf, nop, nil
}

// openEnv resolves the environment flags. Without --env or --console the
// environment only lives for this process.
func openEnv() (env.Store, func(), error) {
	var store env.Store = env.NewMap()
	if envFile != "" {
		img, err := env.OpenImage(envFile, envSize, redundant)
		if err != nil {
			return nil, func() {}, err
		}
		img.SetLogger(logger)
		store = img
	}
	if console == "" {
		return store, func() {}, nil
	}

	c, err := env.OpenConsole(console, baud)
	if err != nil {
		return nil, func() {}, err
	}
	c.AutoSave = autoSave
	c.SetLogger(logger)
	return &env.Mirror{Store: store, Remote: c}, func() { c.Close() }, nil
}

// persist writes an environment image back after a successful change
func persist(store env.Store) error {
	if img, ok := store.(*env.Image); ok {
		return img.Save()
	}
	if m, ok := store.(*env.Mirror); ok {
		if img, ok := m.Store.(*env.Image); ok {
			return img.Save()
		}
	}
	return nil
}
