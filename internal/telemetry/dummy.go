package telemetry

// Dummy is a SourceFactory whose sources never connect and never push samples.
// Entries built on top of it can still be driven through the manual trigger.
type Dummy struct{}

// Open returns a disconnected source for the PV.
func (Dummy) Open(pvName string, _ SampleHandler) (Source, error) {
	name, err := NormalizePVName(pvName)
	if err != nil {
		return nil, err
	}

	return &dummySource{name: name}, nil
}

// dummySource is the disconnected stand-in returned by Dummy.
type dummySource struct {
	// name is the PV name.
	name string
}

func (d *dummySource) Name() string           { return d.name }
func (d *dummySource) Connected() bool        { return false }
func (d *dummySource) Value() (float64, bool) { return 0, false }
func (d *dummySource) Close() error           { return nil }

// String mirrors the diagnostic form used in entry log lines.
func (d *dummySource) String() string {
	return "<DummyPV pvname=" + d.name + ">"
}
