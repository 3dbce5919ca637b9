package path

import "fmt"

// Source is one named side input and the logic level it is held at
type Source struct {
	Name  string
	Level bool
}

// Stimulus is an ordered mapping from side-input source name to logic level
type Stimulus struct {
	sources []Source
	index   map[string]int
}

// NewStimulus builds a stimulus, rejecting empty and duplicate names
func NewStimulus(sources ...Source) (Stimulus, error) {
	s := Stimulus{
		sources: make([]Source, 0, len(sources)),
		index:   make(map[string]int, len(sources)),
	}
	for _, src := range sources {
		if src.Name == "" {
			return Stimulus{}, fmt.Errorf("stimulus source name cannot be empty")
		}
		if _, dup := s.index[src.Name]; dup {
			return Stimulus{}, fmt.Errorf("duplicate stimulus source %s", src.Name)
		}
		s.index[src.Name] = len(s.sources)
		s.sources = append(s.sources, src)
	}
	return s, nil
}

// Len returns the number of sources
func (s Stimulus) Len() int {
	return len(s.sources)
}

// Sources returns the sources in order
func (s Stimulus) Sources() []Source {
	return append([]Source(nil), s.sources...)
}

// Level returns the level of the named source
func (s Stimulus) Level(name string) (level, ok bool) {
	i, ok := s.index[name]
	if !ok {
		return false, false
	}
	return s.sources[i].Level, true
}

// bind checks the stimulus against the declared side inputs and returns it
// reordered to match them.
func (s Stimulus) bind(declared []string) (Stimulus, error) {
	if s.Len() != len(declared) {
		return Stimulus{}, fmt.Errorf("%w: expected %d sources, got %d", ErrStimulusArity, len(declared), s.Len())
	}
	want := make(map[string]bool, len(declared))
	for _, name := range declared {
		want[name] = true
	}
	for _, src := range s.sources {
		if !want[src.Name] {
			return Stimulus{}, fmt.Errorf("%w: %s", ErrUnknownSource, src.Name)
		}
	}
	ordered := make([]Source, len(declared))
	for i, name := range declared {
		level, _ := s.Level(name)
		ordered[i] = Source{Name: name, Level: level}
	}
	return NewStimulus(ordered...)
}
