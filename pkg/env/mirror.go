package env

// Mirror keeps a local copy of the environment while forwarding every
// change to a remote bootloader that cannot be queried.
type Mirror struct {
	Store
	Remote Setter
}

type deleter interface {
	Delete(name string) error
}

type saver interface {
	Save() error
}

// Set writes name remotely, then locally if that succeeded
func (m *Mirror) Set(name, value string) error {
	if err := m.Remote.Set(name, value); err != nil {
		return err
	}
	return m.Store.Set(name, value)
}

// Delete removes name remotely when supported and locally
func (m *Mirror) Delete(name string) error {
	if d, ok := m.Remote.(deleter); ok {
		if err := d.Delete(name); err != nil {
			return err
		}
	}
	return m.Store.Delete(name)
}

// Save runs saveenv on the remote when it supports it, then writes the local
// copy if it is persistent
func (m *Mirror) Save() error {
	if s, ok := m.Remote.(saver); ok {
		if err := s.Save(); err != nil {
			return err
		}
	}
	if s, ok := m.Store.(saver); ok {
		return s.Save()
	}
	return nil
}
