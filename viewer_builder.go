package simviewer

import (
	"errors"
	"fmt"
)

// Module extends a freshly built Viewer.
type Module interface {
	Install(v *Viewer) error
}

type ViewerBuilder struct {
	cfg     *Config
	host    Host
	log     Logger
	modules []Module
}

func NewViewerBuilder() *ViewerBuilder {
	return &ViewerBuilder{cfg: DefaultConfig()}
}

func (b *ViewerBuilder) UseConfig(cfg *Config) *ViewerBuilder {
	b.cfg = cfg
	return b
}

func (b *ViewerBuilder) UseHost(host Host) *ViewerBuilder {
	b.host = host
	return b
}

func (b *ViewerBuilder) UseLogger(l Logger) *ViewerBuilder {
	b.log = l
	return b
}

func (b *ViewerBuilder) UseModule(modules ...Module) *ViewerBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

func (b *ViewerBuilder) Build() (*Viewer, error) {
	if b.host == nil {
		return nil, errors.New("viewer: no host scene graph")
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("viewer: %w", err)
	}
	logger := b.log
	if logger == nil {
		logger = NewNopLogger()
	}

	palette, err := b.newPalette()
	if err != nil {
		return nil, err
	}
	scene, err := NewScene(b.cfg.Scene.Offset, b.cfg.Scene.Size, b.cfg.Scene.DsFactor)
	if err != nil {
		return nil, err
	}

	v := &Viewer{
		cfg:               b.cfg,
		log:               logger,
		palette:           palette,
		scene:             scene,
		registry:          NewRegistry(b.host, palette, logger, b.cfg.RegistryOptions()),
		lights:            NewLightRig(b.host, logger),
		garbageCollecting: b.cfg.Collector.Enabled,
		gcTolerance:       b.cfg.Collector.Tolerance,
	}
	modules := b.modules
	if b.cfg.Lights.Enabled {
		modules = append([]Module{LightsModule{}}, modules...)
	}

	for _, module := range modules {
		if err := module.Install(v); err != nil {
			return nil, fmt.Errorf("viewer: install %T: %w", module, err)
		}
		v.modules = append(v.modules, module)
	}
	logger.Infof("viewer: palette of %d materials, scene %v+%v", palette.Len(), scene.Offset, scene.Size)
	return v, nil
}

func (b *ViewerBuilder) newPalette() (*Palette, error) {
	pc := b.cfg.Palette
	if pc.BinWidth != 0 {
		return NewPaletteWithWidth(pc.BinWidth, b.host, pc.template())
	}
	return NewPalette(pc.BinsPerChannel, b.host, pc.template())
}

// LightsModule builds the fixed lights and switches them to State.
type LightsModule struct {
	State LightsState
}

func (m LightsModule) Install(v *Viewer) error {
	if err := v.lights.Create(v.scene); err != nil {
		return err
	}
	if m.State == LightsNotConfigured || m.State == LightsNone {
		return nil
	}
	if _, ok := rampsOn[m.State]; !ok {
		return fmt.Errorf("unknown lights state %v", m.State)
	}
	for v.lights.State() != m.State {
		if _, err := v.lights.Toggle(v.scene); err != nil {
			return err
		}
	}
	return nil
}
