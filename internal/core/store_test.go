package core

import (
	"fmt"
	"sync"
	"testing"
)

func TestStore_Initial(t *testing.T) {
	s := NewStore(nil)
	cur := s.Current()
	if cur == nil {
		t.Fatal("Current() = nil before any Replace")
	}
	if len(cur.Students) != 0 || len(cur.Groups) != 0 {
		t.Errorf("initial snapshot not empty: %+v", cur)
	}
	if cur.Settings["classCount"] != 4 {
		t.Errorf("initial settings = %v, want defaults", cur.Settings)
	}
}

func TestStore_InitialSettingsAreCopied(t *testing.T) {
	settings := Settings{"classCount": 6}
	s := NewStore(settings)
	settings["classCount"] = 9
	if got := s.Current().Settings["classCount"]; got != 6 {
		t.Errorf("classCount = %v, want 6", got)
	}
}

func TestStore_Replace(t *testing.T) {
	s := NewStore(nil)
	first := s.Current()
	next := &Snapshot{Students: []Student{{ID: "s1"}}, Groups: []Group{}, Settings: Settings{}}

	if old := s.Replace(next); old != first {
		t.Errorf("Replace() returned %p, want previous %p", old, first)
	}
	if s.Current() != next {
		t.Error("Current() is not the replaced snapshot")
	}
}

// Readers must only ever see one of the installed snapshots, whole.
func TestStore_ConcurrentReplace(t *testing.T) {
	s := NewStore(nil)

	const writers = 8
	const rounds = 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				tag := fmt.Sprintf("w%d-%d", w, i)
				s.Replace(&Snapshot{
					Students: []Student{{ID: tag}, {ID: tag}},
					Groups:   []Group{{ID: tag}},
					Settings: Settings{"tag": tag},
				})
			}
		}(w)
	}

	done := make(chan struct{})
	var readErr error
	go func() {
		defer close(done)
		for i := 0; i < writers*rounds; i++ {
			cur := s.Current()
			if len(cur.Students) == 0 {
				continue
			}
			tag := cur.Students[0].ID
			if cur.Students[1].ID != tag || cur.Groups[0].ID != tag || cur.Settings["tag"] != tag {
				readErr = fmt.Errorf("mixed snapshot observed: %+v", cur)
				return
			}
		}
	}()

	wg.Wait()
	<-done
	if readErr != nil {
		t.Fatal(readErr)
	}
}
