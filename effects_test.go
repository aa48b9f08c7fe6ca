package tracksynth

import "testing"

// TestFineVolumeSlideAppliesOnceOnTriggerRow covers the DxF (fine up)
// encoding: the slide must land once, on the row that carries it, and
// not reapply on a later tick of the same row.
func TestFineVolumeSlideAppliesOnceOnTriggerRow(t *testing.T) {
	player := newPlayerWithTestPattern([][]string{
		{"A-4 1 40 D2F"},
	}, t)
	player.dispatchRow()
	if player.channels[0].volume != 42 {
		t.Errorf("expected volume 42 after a DxF fine up-slide of 2, got %d", player.channels[0].volume)
	}
	player.tickEffect(&player.channels[0])
	if player.channels[0].volume != 42 {
		t.Errorf("expected volume to stay 42 on a later tick, got %d", player.channels[0].volume)
	}
}

// TestFineVolumeSlideDownAppliesOnceOnTriggerRow covers the DFx (fine
// down) encoding, the mirror case.
func TestFineVolumeSlideDownAppliesOnceOnTriggerRow(t *testing.T) {
	player := newPlayerWithTestPattern([][]string{
		{"A-4 1 40 DF3"},
	}, t)
	player.dispatchRow()
	if player.channels[0].volume != 37 {
		t.Errorf("expected volume 37 after a DFx fine down-slide of 3, got %d", player.channels[0].volume)
	}
	player.tickEffect(&player.channels[0])
	if player.channels[0].volume != 37 {
		t.Errorf("expected volume to stay 37 on a later tick, got %d", player.channels[0].volume)
	}
}

// TestRegularVolumeSlideAppliesEveryTick covers the ordinary (non-fine)
// Dx0 encoding: no slide on the trigger row itself, then one slide
// step per subsequent tick.
func TestRegularVolumeSlideAppliesEveryTick(t *testing.T) {
	player := newPlayerWithTestPattern([][]string{
		{"A-4 1 40 D20"},
	}, t)
	player.dispatchRow()
	if player.channels[0].volume != 40 {
		t.Errorf("expected row dispatch to leave volume unslid at 40, got %d", player.channels[0].volume)
	}
	player.tickEffect(&player.channels[0])
	if player.channels[0].volume != 42 {
		t.Errorf("expected one tick of regular up-slide to reach 42, got %d", player.channels[0].volume)
	}
	player.tickEffect(&player.channels[0])
	if player.channels[0].volume != 44 {
		t.Errorf("expected a second tick of regular up-slide to reach 44, got %d", player.channels[0].volume)
	}
}
