package client_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yeisme/dataroom/pkg/api"
	"github.com/yeisme/dataroom/pkg/client"
	"github.com/yeisme/dataroom/pkg/internal/storage/storagetest"
)

type namedReader struct {
	io.Reader
	name string
}

func (n namedReader) Name() string { return n.name }

func newClient(t *testing.T) *client.Client {
	t.Helper()

	cfg := storagetest.Config(t)
	_, mgr := storagetest.New(t, cfg)

	srv := httptest.NewServer(api.NewEngine(&cfg, mgr, nil))
	t.Cleanup(srv.Close)

	return client.New(srv.URL)
}

func login(t *testing.T, c *client.Client, username string) {
	t.Helper()

	if err := c.Auth().Login(context.Background(), username); err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
}

func TestDataRoomLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	login(t, c, "alice")

	rooms := c.DataRooms()
	if got := rooms.List(ctx); len(got) != 0 {
		t.Fatalf("List() = %v, want empty", got)
	}

	deals := rooms.Create(ctx, "Deals")
	if deals == nil {
		t.Fatal("Create(Deals) = nil")
	}

	if got := rooms.List(ctx); len(got) != 1 || got[0].Name != "Deals" {
		t.Fatalf("List() = %+v", got)
	}

	if got := rooms.Rename(ctx, deals.ID, "Deals 2026"); got == nil || got.Name != "Deals 2026" {
		t.Fatalf("Rename() = %+v", got)
	}

	if rooms.Create(ctx, "a/b") != nil {
		t.Fatal("Create with a path separator should fail locally")
	}

	if !rooms.Delete(ctx, deals.ID) {
		t.Fatal("Delete() = false")
	}

	if rooms.Get(ctx, deals.ID) != nil {
		t.Fatal("Get() after delete should be nil")
	}
}

func TestListKeepsLastResultOnFailure(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	login(t, c, "alice")

	c.DataRooms().Create(ctx, "Deals")

	c.SetToken("garbage")

	got := c.DataRooms().List(ctx)
	if len(got) != 1 || got[0].Name != "Deals" {
		t.Fatalf("List() after auth failure = %+v, want previous result", got)
	}

	c.Auth().Logout()

	if got := c.DataRooms().List(ctx); len(got) != 0 {
		t.Fatalf("List() after logout = %+v, want empty", got)
	}
}

func TestFoldersAndFiles(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	login(t, c, "alice")

	room := c.DataRooms().Create(ctx, "Deals")
	root := client.DataRoomRoot{DataRoomID: room.ID}

	if c.Folders().Get(ctx, 0) != nil {
		t.Fatal("Get(0) should be nil")
	}

	contracts := c.Folders().Create(ctx, "Contracts", root)
	if contracts == nil {
		t.Fatal("Create(Contracts) = nil")
	}

	inContracts := client.FolderRef{DataRoomID: room.ID, FolderID: contracts.ID}

	nested := c.Folders().Create(ctx, "2026", inContracts)
	if nested == nil || nested.ParentFolderID == nil || *nested.ParentFolderID != contracts.ID {
		t.Fatalf("Create(2026) = %+v", nested)
	}

	if c.Folders().Move(ctx, contracts.ID, "Contracts", client.FolderRef{DataRoomID: room.ID, FolderID: nested.ID}) != nil {
		t.Fatal("moving a folder under its own child should fail")
	}

	f, err := c.Files().Upload(ctx, namedReader{Reader: strings.NewReader("%PDF-1.7"), name: "/tmp/report.pdf"}, inContracts)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if f.Name != "report.pdf" || f.ContentType != "application/pdf" {
		t.Fatalf("Upload() = %+v", f)
	}

	dl, err := c.Files().Get(ctx, f.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	body, _ := io.ReadAll(dl.Body)
	_ = dl.Body.Close()

	if string(body) != "%PDF-1.7" || dl.Name != "report.pdf" {
		t.Fatalf("download = %q %q", dl.Name, body)
	}

	moved := c.Files().Move(ctx, f.ID, "final.pdf", root)
	if moved == nil || moved.ParentFolderID != nil {
		t.Fatalf("Move() = %+v", moved)
	}

	if !c.Folders().Delete(ctx, contracts.ID) {
		t.Fatal("Delete(Contracts) = false")
	}

	if c.Folders().Get(ctx, nested.ID) != nil {
		t.Fatal("nested folder should be gone")
	}

	if !c.Files().Delete(ctx, f.ID) {
		t.Fatal("Delete(file) = false")
	}

	_, err = c.Files().Get(ctx, f.ID)

	var se *client.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("Get() after delete error = %v, want 404", err)
	}
}

func TestOtherUsersContentIsHidden(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	login(t, c, "alice")

	room := c.DataRooms().Create(ctx, "Deals")

	f, err := c.Files().Upload(ctx, namedReader{Reader: strings.NewReader("x"), name: "a.txt"}, client.DataRoomRoot{DataRoomID: room.ID})
	if err != nil {
		t.Fatal(err)
	}

	login(t, c, "bob")

	if c.DataRooms().Get(ctx, room.ID) != nil {
		t.Fatal("bob should not see alice's data room")
	}

	_, err = c.Files().Get(ctx, f.ID)

	var se *client.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Fatalf("Get() as bob error = %v, want 401", err)
	}
}

func TestUploadRequiresParent(t *testing.T) {
	c := client.New("http://127.0.0.1:0")

	if _, err := c.Files().Upload(context.Background(), namedReader{Reader: strings.NewReader("x"), name: "a.txt"}, nil); err == nil {
		t.Fatal("Upload() without parent should fail")
	}

	if _, err := c.Files().Upload(context.Background(), namedReader{Reader: strings.NewReader("x"), name: "a.txt"}, client.DataRoomRoot{}); err == nil {
		t.Fatal("Upload() with zero data room should fail")
	}
}
