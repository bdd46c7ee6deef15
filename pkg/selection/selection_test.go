package selection

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/yeisme/dataroom/pkg/client"
)

type fakeRooms map[uint]*client.DataRoom

func (f fakeRooms) Get(_ context.Context, id uint) *client.DataRoom { return clonePtr(f[id]) }

type fakeFolders struct {
	mu      sync.Mutex
	folders map[uint]*client.Folder
	// gate 非 nil 时 Get 会阻塞直到收到信号.
	gate chan struct{}
	hit  chan struct{}
}

func (f *fakeFolders) Get(_ context.Context, id uint) *client.Folder {
	if f.gate != nil {
		f.hit <- struct{}{}
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return clonePtr(f.folders[id])
}

func ptr(v uint) *uint { return &v }

// fixture: data room 1 / folder 10 / folder 11, file 100 in folder 11, file 200 at the root.
func fixture() (fakeRooms, *fakeFolders) {
	rooms := fakeRooms{
		1: {ID: 1, Name: "Deals", Folders: []client.ItemRef{{ID: 10, Name: "Contracts"}}, Files: []client.ItemRef{{ID: 200, Name: "index.txt"}}},
		2: {ID: 2, Name: "Board"},
	}
	folders := &fakeFolders{folders: map[uint]*client.Folder{
		10: {ID: 10, Name: "Contracts", ParentDataRoomID: 1, ChildrenFolders: []client.ItemRef{{ID: 11, Name: "2026"}}},
		11: {ID: 11, Name: "2026", ParentDataRoomID: 1, ParentFolderID: ptr(10), ChildrenFiles: []client.ItemRef{{ID: 100, Name: "report.pdf"}}},
		20: {ID: 20, Name: "Minutes", ParentDataRoomID: 2},
	}}

	return rooms, folders
}

func TestTransitions(t *testing.T) {
	ctx := context.Background()
	rooms, folders := fixture()
	c := New(rooms, folders)

	if err := c.OpenFolder(folders.folders[10]); !errors.Is(err, ErrNoDataRoom) {
		t.Fatalf("OpenFolder without data room = %v", err)
	}

	c.SelectDataRoom(rooms[1])

	if err := c.OpenFolder(folders.folders[20]); !errors.Is(err, ErrOutsideDataRoom) {
		t.Fatalf("OpenFolder(other room) = %v", err)
	}

	if err := c.OpenFolder(folders.folders[11]); err != nil {
		t.Fatal(err)
	}

	if err := c.SelectFile(client.ItemRef{ID: 100, Name: "report.pdf"}); err != nil {
		t.Fatal(err)
	}

	if got := c.Position(); got != (Position{DataRoomID: 1, FolderID: 11, FileID: 100}) {
		t.Fatalf("Position() = %+v", got)
	}

	// nested folder -> parent folder
	if err := c.GoBack(ctx); err != nil {
		t.Fatal(err)
	}

	if f := c.Folder(); f == nil || f.ID != 10 || c.File() != nil {
		t.Fatalf("after GoBack folder = %+v file = %+v", f, c.File())
	}

	// top-level folder -> data room root
	_ = c.GoBack(ctx)

	if c.Folder() != nil || c.DataRoom() == nil {
		t.Fatalf("after second GoBack = %+v", c.Snapshot())
	}

	// data room root -> nothing
	_ = c.GoBack(ctx)

	if c.DataRoom() != nil {
		t.Fatal("GoBack at data room root should clear the selection")
	}

	c.SelectDataRoom(rooms[1])
	_ = c.OpenFolder(folders.folders[10])
	c.SelectDataRoom(rooms[2])

	if c.Folder() != nil {
		t.Fatal("SelectDataRoom should clear the folder")
	}

	c.Clear()

	if s := c.Snapshot(); s.DataRoom != nil || s.Folder != nil || s.File != nil {
		t.Fatalf("Clear() left %+v", s)
	}
}

func TestRefreshReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	rooms, folders := fixture()
	c := New(rooms, folders)

	c.SelectDataRoom(rooms[1])
	_ = c.OpenFolder(folders.folders[10])

	folders.folders[10].Name = "Signed contracts"
	rooms[1].Name = "Deals 2026"

	if err := c.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	if c.DataRoom().Name != "Deals 2026" || c.Folder().Name != "Signed contracts" {
		t.Fatalf("Refresh() = %+v", c.Snapshot())
	}

	delete(rooms, 1)

	_ = c.Refresh(ctx)

	if c.DataRoom() != nil || c.Folder() != nil {
		t.Fatal("Refresh() of a deleted data room should clear the selection")
	}
}

func TestSelectFileMustBeListed(t *testing.T) {
	rooms, folders := fixture()
	c := New(rooms, folders)

	if err := c.SelectFile(client.ItemRef{ID: 200}); !errors.Is(err, ErrNoDataRoom) {
		t.Fatalf("SelectFile without data room = %v", err)
	}

	c.SelectDataRoom(rooms[1])

	if err := c.SelectFile(client.ItemRef{ID: 100}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SelectFile(nested file at root) = %v", err)
	}

	if err := c.SelectFile(client.ItemRef{ID: 200}); err != nil {
		t.Fatal(err)
	}

	if f := c.File(); f == nil || f.Name != "index.txt" {
		t.Fatalf("File() = %+v, want the listed ref", f)
	}

	_ = c.OpenFolder(folders.folders[11])

	if err := c.SelectFile(client.ItemRef{ID: 200}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SelectFile(root file inside folder) = %v", err)
	}

	if c.File() != nil {
		t.Fatalf("rejected SelectFile changed the file: %+v", c.File())
	}

	if err := c.SelectFile(client.ItemRef{ID: 100}); err != nil {
		t.Fatal(err)
	}
}

func TestSelectionStaysInsideDataRoom(t *testing.T) {
	type action func(*Cursor) error

	refresh := func(c *Cursor) error { return c.Refresh(context.Background()) }
	goBack := func(c *Cursor) error { return c.GoBack(context.Background()) }

	tests := []struct {
		name   string
		start  Position
		mutate func(fakeRooms, *fakeFolders)
		do     action
		want   Position
	}{
		{
			name:  "refresh unchanged",
			start: Position{DataRoomID: 1, FolderID: 11, FileID: 100},
			do:    refresh,
			want:  Position{DataRoomID: 1, FolderID: 11, FileID: 100},
		},
		{
			name:  "refresh after folder moved to another data room",
			start: Position{DataRoomID: 1, FolderID: 11, FileID: 100},
			mutate: func(_ fakeRooms, f *fakeFolders) {
				f.folders[11].ParentDataRoomID, f.folders[11].ParentFolderID = 2, nil
			},
			do:   refresh,
			want: Position{DataRoomID: 1},
		},
		{
			name:   "refresh after folder deleted",
			start:  Position{DataRoomID: 1, FolderID: 11, FileID: 100},
			mutate: func(_ fakeRooms, f *fakeFolders) { delete(f.folders, 11) },
			do:     refresh,
			want:   Position{DataRoomID: 1},
		},
		{
			name:   "refresh after file left the folder",
			start:  Position{DataRoomID: 1, FolderID: 11, FileID: 100},
			mutate: func(_ fakeRooms, f *fakeFolders) { f.folders[11].ChildrenFiles = nil },
			do:     refresh,
			want:   Position{DataRoomID: 1, FolderID: 11},
		},
		{
			name:  "refresh keeps root file",
			start: Position{DataRoomID: 1, FileID: 200},
			do:    refresh,
			want:  Position{DataRoomID: 1, FileID: 200},
		},
		{
			name:   "refresh after root file deleted",
			start:  Position{DataRoomID: 1, FileID: 200},
			mutate: func(r fakeRooms, _ *fakeFolders) { r[1].Files = nil },
			do:     refresh,
			want:   Position{DataRoomID: 1},
		},
		{
			name:  "go back to parent",
			start: Position{DataRoomID: 1, FolderID: 11, FileID: 100},
			do:    goBack,
			want:  Position{DataRoomID: 1, FolderID: 10},
		},
		{
			name:   "go back when parent moved to another data room",
			start:  Position{DataRoomID: 1, FolderID: 11},
			mutate: func(_ fakeRooms, f *fakeFolders) { f.folders[10].ParentDataRoomID = 2 },
			do:     goBack,
			want:   Position{DataRoomID: 1},
		},
		{
			name:   "go back when parent deleted",
			start:  Position{DataRoomID: 1, FolderID: 11},
			mutate: func(_ fakeRooms, f *fakeFolders) { delete(f.folders, 10) },
			do:     goBack,
			want:   Position{DataRoomID: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms, folders := fixture()
			c := New(rooms, folders)

			c.SelectDataRoom(rooms[tt.start.DataRoomID])

			if tt.start.FolderID != 0 {
				if err := c.OpenFolder(folders.folders[tt.start.FolderID]); err != nil {
					t.Fatal(err)
				}
			}

			if tt.start.FileID != 0 {
				if err := c.SelectFile(client.ItemRef{ID: tt.start.FileID}); err != nil {
					t.Fatal(err)
				}
			}

			if tt.mutate != nil {
				tt.mutate(rooms, folders)
			}

			if err := tt.do(c); err != nil {
				t.Fatal(err)
			}

			if got := c.Position(); got != tt.want {
				t.Errorf("Position() = %+v, want %+v", got, tt.want)
			}

			s := c.Snapshot()
			if s.Folder != nil && (s.DataRoom == nil || s.Folder.ParentDataRoomID != s.DataRoom.ID) {
				t.Errorf("folder %d outside data room %+v", s.Folder.ID, s.DataRoom)
			}
		})
	}
}

func TestStaleGoBackIsDiscarded(t *testing.T) {
	rooms, folders := fixture()
	folders.gate = make(chan struct{})
	folders.hit = make(chan struct{})

	c := New(rooms, folders)
	c.SelectDataRoom(rooms[1])
	_ = c.OpenFolder(folders.folders[11])

	done := make(chan error, 1)

	go func() { done <- c.GoBack(context.Background()) }()

	<-folders.hit
	c.SelectDataRoom(rooms[2])
	close(folders.gate)

	if err := <-done; !errors.Is(err, ErrStale) {
		t.Fatalf("GoBack() = %v, want ErrStale", err)
	}

	if r := c.DataRoom(); r == nil || r.ID != 2 || c.Folder() != nil {
		t.Fatalf("stale result overwrote selection: %+v", c.Snapshot())
	}
}

func TestPositionRoundTrip(t *testing.T) {
	ctx := context.Background()
	rooms, folders := fixture()
	path := filepath.Join(t.TempDir(), "state", "position.yaml")

	if pos, err := LoadPosition(path); err != nil || !pos.IsZero() {
		t.Fatalf("LoadPosition(missing) = %+v, %v", pos, err)
	}

	if err := SavePosition(path, Position{DataRoomID: 1, FolderID: 11, FileID: 100}); err != nil {
		t.Fatal(err)
	}

	pos, err := LoadPosition(path)
	if err != nil {
		t.Fatal(err)
	}

	c := New(rooms, folders)
	if err := c.Restore(ctx, pos); err != nil {
		t.Fatal(err)
	}

	if got := c.Position(); got != pos {
		t.Fatalf("Restore() position = %+v, want %+v", got, pos)
	}

	err = c.Restore(ctx, Position{DataRoomID: 1, FolderID: 20})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Restore(foreign folder) = %v", err)
	}

	if got := c.Position(); got != (Position{DataRoomID: 1}) {
		t.Fatalf("Restore() should stop at the data room, got %+v", got)
	}
}
