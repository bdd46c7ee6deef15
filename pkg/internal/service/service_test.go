package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yeisme/dataroom/pkg/configs"
	"github.com/yeisme/dataroom/pkg/internal/model"
	"github.com/yeisme/dataroom/pkg/internal/service"
	"github.com/yeisme/dataroom/pkg/internal/storage"
	"github.com/yeisme/dataroom/pkg/internal/storage/storagetest"
	"github.com/yeisme/dataroom/pkg/internal/types"
	"github.com/yeisme/dataroom/pkg/queue"
)

const (
	alice = uint(1)
	bob   = uint(2)
)

type fixture struct {
	ctx     context.Context
	mgr     *storage.Manager
	rooms   *service.DataRoomService
	folders *service.FolderService
	files   *service.FileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx, mgr := storagetest.New(t, storagetest.Config(t))

	return &fixture{
		ctx:     ctx,
		mgr:     mgr,
		rooms:   service.NewDataRoomService(ctx),
		folders: service.NewFolderService(ctx),
		files:   service.NewFileService(ctx),
	}
}

func (f *fixture) room(t *testing.T, owner uint, name string) *types.DataRoomView {
	t.Helper()

	dr, err := f.rooms.Create(f.ctx, owner, &types.CreateDataRoomRequest{Name: name})
	if err != nil {
		t.Fatalf("create data room %q: %v", name, err)
	}

	return dr
}

func (f *fixture) folder(t *testing.T, owner, room uint, parent *uint, name string) *types.FolderView {
	t.Helper()

	fv, err := f.folders.Create(f.ctx, owner, &types.CreateFolderRequest{
		Name: name, ParentDataRoomID: room, ParentFolderID: parent,
	})
	if err != nil {
		t.Fatalf("create folder %q: %v", name, err)
	}

	return fv
}

func (f *fixture) upload(t *testing.T, owner, room uint, parent *uint, name, body string) *types.FileView {
	t.Helper()

	fv, err := f.files.Upload(f.ctx, owner, &service.UploadInput{
		FileName:         name,
		ParentDataRoomID: room,
		ParentFolderID:   parent,
		ContentType:      "text/plain",
		Size:             int64(len(body)),
		Content:          strings.NewReader(body),
	})
	if err != nil {
		t.Fatalf("upload %q: %v", name, err)
	}

	return fv
}

func ptr(v uint) *uint { return &v }

func hasRef(refs []types.ItemRef, id uint) bool {
	for _, r := range refs {
		if r.ID == id {
			return true
		}
	}

	return false
}

func TestDataRoomLifecycle(t *testing.T) {
	f := newFixture(t)

	list, err := f.rooms.List(f.ctx, alice)
	if err != nil || list == nil || len(list) != 0 {
		t.Fatalf("empty List = %#v, %v", list, err)
	}

	deals := f.room(t, alice, "Deals")

	if _, err := f.rooms.Create(f.ctx, alice, &types.CreateDataRoomRequest{Name: "Deals"}); !errors.Is(err, service.ErrConflict) {
		t.Errorf("duplicate name: got %v, want ErrConflict", err)
	}

	// 名称只在同一用户下唯一
	f.room(t, bob, "Deals")

	other := f.room(t, alice, "Other")
	if _, err := f.rooms.Rename(f.ctx, alice, other.ID, &types.RenameDataRoomRequest{Name: "Deals"}); !errors.Is(err, service.ErrConflict) {
		t.Errorf("rename onto existing: got %v, want ErrConflict", err)
	}

	renamed, err := f.rooms.Rename(f.ctx, alice, deals.ID, &types.RenameDataRoomRequest{Name: "Deals 2025"})
	if err != nil || renamed.Name != "Deals 2025" {
		t.Fatalf("Rename = %+v, %v", renamed, err)
	}

	list, err = f.rooms.List(f.ctx, alice)
	if err != nil || len(list) != 2 || list[0].Name != "Deals 2025" {
		t.Fatalf("List after rename = %+v, %v", list, err)
	}

	if _, err := f.rooms.Get(f.ctx, bob, deals.ID); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("foreign Get: got %v, want ErrUnauthorized", err)
	}

	if _, err := f.rooms.Get(f.ctx, alice, 999); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("missing Get: got %v, want ErrNotFound", err)
	}

	if err := f.rooms.Delete(f.ctx, bob, deals.ID); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("foreign Delete: got %v, want ErrUnauthorized", err)
	}

	if err := f.rooms.Delete(f.ctx, alice, deals.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := f.rooms.Get(f.ctx, alice, deals.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Get after delete: got %v, want ErrNotFound", err)
	}
}

func TestInvalidNames(t *testing.T) {
	f := newFixture(t)
	dr := f.room(t, alice, "Deals")

	for _, name := range []string{"", "   ", "a/b", ".."} {
		if _, err := f.rooms.Create(f.ctx, alice, &types.CreateDataRoomRequest{Name: name}); !errors.Is(err, service.ErrInvalidName) {
			t.Errorf("room %q: got %v", name, err)
		}

		if _, err := f.folders.Create(f.ctx, alice, &types.CreateFolderRequest{Name: name, ParentDataRoomID: dr.ID}); !errors.Is(err, service.ErrInvalidName) {
			t.Errorf("folder %q: got %v", name, err)
		}
	}
}

func TestCreateFolderIsListedByDataRoom(t *testing.T) {
	f := newFixture(t)
	dr := f.room(t, alice, "Deals")

	x := f.folder(t, alice, dr.ID, nil, "Contracts")
	if x.ParentDataRoomID != dr.ID || x.ParentFolderID != nil {
		t.Fatalf("folder placement = %+v", x)
	}

	got, err := f.rooms.Get(f.ctx, alice, dr.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if !hasRef(got.Folders, x.ID) {
		t.Errorf("data room folders %+v do not list %d", got.Folders, x.ID)
	}

	// 嵌套文件夹不出现在数据室根目录中
	nested := f.folder(t, alice, dr.ID, &x.ID, "Signed")

	got, _ = f.rooms.Get(f.ctx, alice, dr.ID)
	if hasRef(got.Folders, nested.ID) {
		t.Errorf("nested folder %d listed at data room root", nested.ID)
	}

	parent, _ := f.folders.Get(f.ctx, alice, x.ID)
	if !hasRef(parent.ChildrenFolders, nested.ID) {
		t.Errorf("parent children %+v do not list %d", parent.ChildrenFolders, nested.ID)
	}

	// 同级重名允许
	f.folder(t, alice, dr.ID, nil, "Contracts")
}

func TestCreateFolderRejectsBadParents(t *testing.T) {
	f := newFixture(t)
	a := f.room(t, alice, "A")
	b := f.room(t, alice, "B")
	inB := f.folder(t, alice, b.ID, nil, "in-b")
	bobs := f.room(t, bob, "Bob")

	cases := []struct {
		name string
		req  types.CreateFolderRequest
		want error
	}{
		{"missing room", types.CreateFolderRequest{Name: "x", ParentDataRoomID: 404}, service.ErrNotFound},
		{"foreign room", types.CreateFolderRequest{Name: "x", ParentDataRoomID: bobs.ID}, service.ErrUnauthorized},
		{"missing folder", types.CreateFolderRequest{Name: "x", ParentDataRoomID: a.ID, ParentFolderID: ptr(404)}, service.ErrNotFound},
		{"folder in other room", types.CreateFolderRequest{Name: "x", ParentDataRoomID: a.ID, ParentFolderID: &inB.ID}, service.ErrInvalidParent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.folders.Create(f.ctx, alice, &tc.req); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestMoveFolderToRootClearsParent(t *testing.T) {
	f := newFixture(t)
	dr := f.room(t, alice, "Deals")
	parent := f.folder(t, alice, dr.ID, nil, "parent")
	child := f.folder(t, alice, dr.ID, &parent.ID, "child")

	moved, err := f.folders.Move(f.ctx, alice, child.ID, &types.MoveFolderRequest{Name: "child", ParentDataRoomID: dr.ID})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}

	if moved.ParentFolderID != nil {
		t.Errorf("parent_folder_id = %d, want absent", *moved.ParentFolderID)
	}

	var row model.Folder
	if err := f.mgr.DB.First(&row, child.ID).Error; err != nil || row.ParentFolderID != nil {
		t.Errorf("stored parent = %v, %v", row.ParentFolderID, err)
	}
}

func TestMoveFolderRejectsCycles(t *testing.T) {
	f := newFixture(t)
	dr := f.room(t, alice, "Deals")
	a := f.folder(t, alice, dr.ID, nil, "a")
	b := f.folder(t, alice, dr.ID, &a.ID, "b")
	c := f.folder(t, alice, dr.ID, &b.ID, "c")

	for _, target := range []uint{a.ID, b.ID, c.ID} {
		_, err := f.folders.Move(f.ctx, alice, a.ID, &types.MoveFolderRequest{Name: "a", ParentDataRoomID: dr.ID, ParentFolderID: ptr(target)})
		if !errors.Is(err, service.ErrCycle) {
			t.Errorf("move a under %d: got %v, want ErrCycle", target, err)
		}
	}

	// 反方向移动合法
	if _, err := f.folders.Move(f.ctx, alice, c.ID, &types.MoveFolderRequest{Name: "c", ParentDataRoomID: dr.ID, ParentFolderID: &a.ID}); err != nil {
		t.Errorf("move c under a: %v", err)
	}
}

func TestMoveFolderAcrossDataRooms(t *testing.T) {
	f := newFixture(t)
	src := f.room(t, alice, "src")
	dst := f.room(t, alice, "dst")
	top := f.folder(t, alice, src.ID, nil, "top")
	sub := f.folder(t, alice, src.ID, &top.ID, "sub")
	file := f.upload(t, alice, src.ID, &sub.ID, "deep.txt", "deep")

	if _, err := f.folders.Move(f.ctx, alice, top.ID, &types.MoveFolderRequest{Name: "top", ParentDataRoomID: dst.ID}); err != nil {
		t.Fatalf("Move: %v", err)
	}

	subView, err := f.folders.Get(f.ctx, alice, sub.ID)
	if err != nil || subView.ParentDataRoomID != dst.ID {
		t.Errorf("sub folder room = %+v, %v", subView, err)
	}

	stat, err := f.files.Stat(f.ctx, alice, file.ID)
	if err != nil || stat.ParentDataRoomID != dst.ID {
		t.Errorf("file room = %+v, %v", stat, err)
	}

	srcView, _ := f.rooms.Get(f.ctx, alice, src.ID)
	dstView, _ := f.rooms.Get(f.ctx, alice, dst.ID)

	if hasRef(srcView.Folders, top.ID) || !hasRef(dstView.Folders, top.ID) {
		t.Errorf("src %+v dst %+v", srcView.Folders, dstView.Folders)
	}
}

func TestDeleteFolderCascades(t *testing.T) {
	f := newFixture(t)
	dr := f.room(t, alice, "Deals")
	root := f.folder(t, alice, dr.ID, nil, "root")
	keep := f.upload(t, alice, dr.ID, nil, "keep.txt", "keep")

	// 3 层，每层 2 个文件夹，每个文件夹 1 个文件
	parents := []uint{root.ID}
	folders := []uint{root.ID}
	files := []uint{f.upload(t, alice, dr.ID, &root.ID, "r.txt", "r").ID}

	for depth := 0; depth < 3; depth++ {
		var next []uint

		for _, p := range parents {
			for i := 0; i < 2; i++ {
				sub := f.folder(t, alice, dr.ID, ptr(p), "sub")
				next = append(next, sub.ID)
				folders = append(folders, sub.ID)
				files = append(files, f.upload(t, alice, dr.ID, &sub.ID, "f.txt", "x").ID)
			}
		}

		parents = next
	}

	var keys []string
	f.mgr.DB.Model(&model.File{}).Where("id IN ?", files).Pluck("content_key", &keys)

	if len(keys) != len(files) {
		t.Fatalf("content keys = %d, want %d", len(keys), len(files))
	}

	if err := f.folders.Delete(f.ctx, alice, root.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var n int64

	f.mgr.DB.Model(&model.Folder{}).Where("id IN ? OR parent_folder_id IN ?", folders, folders).Count(&n)
	if n != 0 {
		t.Errorf("%d folder references remain", n)
	}

	f.mgr.DB.Model(&model.File{}).Where("id IN ? OR parent_folder_id IN ?", files, folders).Count(&n)
	if n != 0 {
		t.Errorf("%d file references remain", n)
	}

	for _, key := range keys {
		if _, _, err := f.mgr.Blob.Open(f.ctx, key); err == nil {
			t.Errorf("blob %s still exists", key)
		}
	}

	if _, err := f.files.Stat(f.ctx, alice, keep.ID); err != nil {
		t.Errorf("unrelated file removed: %v", err)
	}
}

func TestRepeatedFetchIsStable(t *testing.T) {
	f := newFixture(t)
	dr := f.room(t, alice, "Deals")
	x := f.folder(t, alice, dr.ID, nil, "x")
	f.folder(t, alice, dr.ID, &x.ID, "y")
	f.upload(t, alice, dr.ID, &x.ID, "z.txt", "z")

	first, err := f.folders.Get(f.ctx, alice, x.ID)
	if err != nil {
		t.Fatal(err)
	}

	second, err := f.folders.Get(f.ctx, alice, x.ID)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("fetches differ:\n%+v\n%+v", first, second)
	}

	// 变更后重新获取必须看到新数据
	f.folder(t, alice, dr.ID, &x.ID, "w")

	third, _ := f.folders.Get(f.ctx, alice, x.ID)
	if len(third.ChildrenFolders) != 2 {
		t.Errorf("after mutation children = %+v", third.ChildrenFolders)
	}
}

func TestUploadMoveAndDownload(t *testing.T) {
	f := newFixture(t)
	dr := f.room(t, alice, "Deals")
	folder7 := f.folder(t, alice, dr.ID, nil, "Due diligence")

	report := f.upload(t, alice, dr.ID, &folder7.ID, "report.pdf", "%PDF-1.7")

	fv, _ := f.folders.Get(f.ctx, alice, folder7.ID)
	if !hasRef(fv.ChildrenFiles, report.ID) {
		t.Fatalf("folder does not list uploaded file: %+v", fv.ChildrenFiles)
	}

	var before model.File
	f.mgr.DB.First(&before, report.ID)

	if !strings.HasPrefix(before.ContentKey, "user-1/data-room-1/folder-") || !strings.HasSuffix(before.ContentKey, "-report.pdf") {
		t.Errorf("content key = %q", before.ContentKey)
	}

	// "Up" 到数据室根目录
	moved, err := f.files.Move(f.ctx, alice, report.ID, &types.MoveFileRequest{Name: "report.pdf", ParentDataRoomID: dr.ID})
	if err != nil || moved.ParentFolderID != nil {
		t.Fatalf("Move = %+v, %v", moved, err)
	}

	room, _ := f.rooms.Get(f.ctx, alice, dr.ID)
	fv, _ = f.folders.Get(f.ctx, alice, folder7.ID)

	if !hasRef(room.Files, report.ID) || hasRef(fv.ChildrenFiles, report.ID) {
		t.Errorf("after move: room %+v folder %+v", room.Files, fv.ChildrenFiles)
	}

	var after model.File
	f.mgr.DB.First(&after, report.ID)

	if after.ContentKey != before.ContentKey {
		t.Errorf("content key changed on move: %q -> %q", before.ContentKey, after.ContentKey)
	}

	dl, err := f.files.Open(f.ctx, alice, report.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dl.Content.Close()

	body, _ := io.ReadAll(dl.Content)
	if !bytes.Equal(body, []byte("%PDF-1.7")) || dl.File.Name != "report.pdf" {
		t.Errorf("download = %q (%+v)", body, dl.File)
	}

	if _, err := f.files.Open(f.ctx, bob, report.ID); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("foreign Open: %v", err)
	}

	if err := f.files.Delete(f.ctx, alice, report.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, _, err := f.mgr.Blob.Open(f.ctx, before.ContentKey); err == nil {
		t.Error("content survived delete")
	}
}

func TestUploadIntoMissingParentLeavesNoContent(t *testing.T) {
	f := newFixture(t)
	dr := f.room(t, alice, "Deals")

	_, err := f.files.Upload(f.ctx, alice, &service.UploadInput{
		FileName: "a.txt", ParentDataRoomID: dr.ID, ParentFolderID: ptr(99),
		Size: 1, Content: strings.NewReader("a"),
	})
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	objs, _ := f.mgr.Blob.List(f.ctx, "")
	if len(objs) != 0 {
		t.Errorf("stray content: %+v", objs)
	}
}

func TestUploadIntoDeletedFolder(t *testing.T) {
	f := newFixture(t)
	dr := f.room(t, alice, "Deals")
	x := f.folder(t, alice, dr.ID, nil, "x")

	if err := f.folders.Delete(f.ctx, alice, x.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, err := f.files.Upload(f.ctx, alice, &service.UploadInput{
		FileName: "late.txt", ParentDataRoomID: dr.ID, ParentFolderID: &x.ID,
		Size: 1, Content: strings.NewReader("l"),
	})
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	var n int64

	f.mgr.DB.Model(&model.File{}).Where("parent_folder_id = ?", x.ID).Count(&n)
	if n != 0 {
		t.Errorf("%d files under deleted folder", n)
	}
}

func TestUploadRacingFolderDelete(t *testing.T) {
	f := newFixture(t)
	dr := f.room(t, alice, "Deals")
	x := f.folder(t, alice, dr.ID, nil, "x")

	const uploads = 8

	var (
		wg   sync.WaitGroup
		errs = make([]error, uploads)
	)

	for i := range uploads {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, errs[i] = f.files.Upload(f.ctx, alice, &service.UploadInput{
				FileName: fmt.Sprintf("f%d.txt", i), ParentDataRoomID: dr.ID, ParentFolderID: &x.ID,
				Size: 1, Content: strings.NewReader("x"),
			})
		}()
	}

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := f.folders.Delete(f.ctx, alice, x.ID); err != nil {
			t.Errorf("Delete: %v", err)
		}
	}()

	wg.Wait()

	for i, err := range errs {
		if err != nil && !errors.Is(err, service.ErrNotFound) {
			t.Errorf("upload %d: %v", i, err)
		}
	}

	// 无论先后顺序，删除提交后都不应留下挂在该文件夹下的文件或内容
	var n int64

	f.mgr.DB.Model(&model.File{}).Where("parent_folder_id = ?", x.ID).Count(&n)
	if n != 0 {
		t.Errorf("%d files under deleted folder", n)
	}

	objs, _ := f.mgr.Blob.List(f.ctx, "")
	if len(objs) != 0 {
		t.Errorf("stray content: %+v", objs)
	}
}

func TestDeleteDataRoomCascades(t *testing.T) {
	f := newFixture(t)
	dr := f.room(t, alice, "Deals")
	keep := f.room(t, alice, "Keep")
	x := f.folder(t, alice, dr.ID, nil, "x")
	f.upload(t, alice, dr.ID, &x.ID, "a.txt", "a")
	f.upload(t, alice, dr.ID, nil, "b.txt", "b")
	kept := f.upload(t, alice, keep.ID, nil, "c.txt", "c")

	if err := f.rooms.Delete(f.ctx, alice, dr.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var n int64

	f.mgr.DB.Model(&model.Folder{}).Where("parent_data_room_id = ?", dr.ID).Count(&n)
	if n != 0 {
		t.Errorf("%d folders remain", n)
	}

	f.mgr.DB.Model(&model.File{}).Where("parent_data_room_id = ?", dr.ID).Count(&n)
	if n != 0 {
		t.Errorf("%d files remain", n)
	}

	objs, _ := f.mgr.Blob.List(f.ctx, "")
	if len(objs) != 1 {
		t.Errorf("blobs = %+v, want only the kept one", objs)
	}

	if _, err := f.files.Stat(f.ctx, alice, kept.ID); err != nil {
		t.Errorf("kept file: %v", err)
	}
}

func TestMutationsPublishEvents(t *testing.T) {
	f := newFixture(t)

	msgs, err := f.mgr.MQ.Subscribe(f.ctx, queue.TopicFolderMoved)
	if err != nil {
		t.Fatal(err)
	}

	dr := f.room(t, alice, "Deals")
	a := f.folder(t, alice, dr.ID, nil, "a")
	b := f.folder(t, alice, dr.ID, nil, "b")

	if _, err := f.folders.Move(f.ctx, alice, b.ID, &types.MoveFolderRequest{Name: "b2", ParentDataRoomID: dr.ID, ParentFolderID: &a.ID}); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-msgs:
		msg.Ack()

		env, err := queue.ParseFolderEvent(msg)
		if err != nil {
			t.Fatal(err)
		}

		p := env.Payload
		if p.FolderID != b.ID || p.Name != "b2" || p.At.FolderID == nil || *p.At.FolderID != a.ID || p.From == nil || p.From.FolderID != nil {
			t.Errorf("payload = %+v", p)
		}

		if env.Header.ActorID != alice {
			t.Errorf("actor = %d", env.Header.ActorID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no dr.folder.moved event")
	}
}

func TestUserLifecycle(t *testing.T) {
	f := newFixture(t)
	users := service.NewUserService(f.ctx)
	auth := service.NewAuthService(f.ctx)

	token, err := auth.Login(f.ctx, "alice")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	uid, err := auth.Tokens().Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	me, err := users.Get(f.ctx, uid)
	if err != nil || me.Username != "alice" || me.Email != "alice@example.com" {
		t.Fatalf("Get = %+v, %v", me, err)
	}

	// 再次登录得到同一个用户
	token2, _ := auth.Login(f.ctx, "alice")
	if uid2, _ := auth.Tokens().Parse(token2); uid2 != uid {
		t.Errorf("second login uid = %d, want %d", uid2, uid)
	}

	if _, err := users.Create(f.ctx, &types.CreateUserRequest{Username: "alice", Email: "x@example.com"}); !errors.Is(err, service.ErrConflict) {
		t.Errorf("duplicate username: %v", err)
	}

	bobToken, err := users.Create(f.ctx, &types.CreateUserRequest{Username: "bob", Email: "bob@corp.test"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	bobID, _ := auth.Tokens().Parse(bobToken)

	if _, err := users.Update(f.ctx, bobID, &types.UpdateUserRequest{Username: "bob", Email: "alice@example.com"}); !errors.Is(err, service.ErrConflict) {
		t.Errorf("email conflict: %v", err)
	}

	updated, err := users.Update(f.ctx, bobID, &types.UpdateUserRequest{Username: "robert", Email: "bob@corp.test"})
	if err != nil || updated.Username != "robert" {
		t.Errorf("Update = %+v, %v", updated, err)
	}

	dr := f.room(t, uid, "Deals")
	f.upload(t, uid, dr.ID, nil, "a.txt", "a")

	if err := users.Delete(f.ctx, uid); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := f.rooms.Get(f.ctx, uid, dr.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("data room after user delete: %v", err)
	}

	if _, err := users.Get(f.ctx, uid); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("user after delete: %v", err)
	}
}

func TestTokens(t *testing.T) {
	cfg := configs.Default().Auth
	issuer := service.NewTokenIssuer(cfg)

	token, err := issuer.Issue(7)
	if err != nil {
		t.Fatal(err)
	}

	if uid, err := issuer.Parse(token); err != nil || uid != 7 {
		t.Errorf("Parse = %d, %v", uid, err)
	}

	other := cfg
	other.Secret = "another-secret"

	if _, err := service.NewTokenIssuer(other).Parse(token); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("wrong secret: %v", err)
	}

	expired := cfg
	expired.TokenTTL = -time.Minute

	// TokenTTL<=0 回落到默认有效期
	if tok, _ := service.NewTokenIssuer(expired).Issue(7); tok == "" {
		t.Error("empty token")
	}

	for _, bad := range []string{"", "not-a-jwt", token + "x"} {
		if _, err := issuer.Parse(bad); !errors.Is(err, service.ErrUnauthorized) {
			t.Errorf("Parse(%q): %v", bad, err)
		}
	}
}
