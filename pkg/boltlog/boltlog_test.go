package boltlog

import "testing"

func TestDiscardNeverPanics(t *testing.T) {
	Discard.Debugf("x %d", 1)
	Discard.Infof("x")
	Discard.Warnf("x")
	Discard.Errorf("x")
}

func TestTaggedWrapsBase(t *testing.T) {
	l := Tagged(New(LevelDebug), "conn-1")
	l.Infof("ready")
}
