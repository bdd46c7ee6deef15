package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yeisme/dataroom/pkg/log"
)

func logger(ctx context.Context, op string) *zerolog.Logger {
	l := log.FromContext(ctx).With().Str("op", op).Logger()
	return &l
}

func idPath(prefix string, id uint) string {
	return prefix + "/" + strconv.FormatUint(uint64(id), 10)
}

// Auth 登录与登出.
type Auth struct{ c *Client }

// Login 按用户名登录并保存令牌.
func (a *Auth) Login(ctx context.Context, username string) error {
	var tok tokenResponse
	if err := a.c.DoJSON(ctx, http.MethodPost, "/login", map[string]string{"username": username}, &tok); err != nil {
		return err
	}

	a.c.SetToken(tok.AccessToken)

	return nil
}

// Logout 丢弃令牌与缓存的数据室列表.
func (a *Auth) Logout() {
	a.c.SetToken("")
	a.c.rooms.reset()
}

// Me 返回当前用户.
func (a *Auth) Me(ctx context.Context) (*User, error) {
	var u User
	if err := a.c.DoJSON(ctx, http.MethodGet, "/user", nil, &u); err != nil {
		return nil, err
	}

	return &u, nil
}

// DataRooms 数据室访问器. List 失败时返回上一次成功的结果.
type DataRooms struct {
	c *Client

	mu   sync.RWMutex
	last []DataRoom
}

func (d *DataRooms) reset() {
	d.mu.Lock()
	d.last = nil
	d.mu.Unlock()
}

func (d *DataRooms) snapshot() []DataRoom {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]DataRoom(nil), d.last...)
}

// List 返回当前用户的全部数据室.
func (d *DataRooms) List(ctx context.Context) []DataRoom {
	var out dataRoomList
	if err := d.c.DoJSON(ctx, http.MethodGet, "/data-room", nil, &out); err != nil {
		logger(ctx, "data_room.list").Warn().Err(err).Msg("keep previous data room list")
		return d.snapshot()
	}

	if out.UserDataRooms == nil {
		out.UserDataRooms = []DataRoom{}
	}

	d.mu.Lock()
	d.last = out.UserDataRooms
	d.mu.Unlock()

	return d.snapshot()
}

// Get 返回数据室，任何失败都返回 nil.
func (d *DataRooms) Get(ctx context.Context, id uint) *DataRoom {
	var dr DataRoom
	if err := d.c.DoJSON(ctx, http.MethodGet, idPath("/data-room", id), nil, &dr); err != nil {
		logger(ctx, "data_room.get").Warn().Err(err).Uint("id", id).Send()
		return nil
	}

	return &dr
}

// Create 创建数据室并刷新列表.
func (d *DataRooms) Create(ctx context.Context, name string) *DataRoom {
	l := logger(ctx, "data_room.create")

	if err := ValidateName(name); err != nil {
		l.Warn().Err(err).Msg("invalid name")
		return nil
	}

	var dr DataRoom
	if err := d.c.DoJSON(ctx, http.MethodPost, "/data-room", nameRequest{Name: name}, &dr); err != nil {
		l.Warn().Err(err).Send()
		return nil
	}

	d.List(ctx)

	return &dr
}

// Rename 重命名数据室.
func (d *DataRooms) Rename(ctx context.Context, id uint, name string) *DataRoom {
	l := logger(ctx, "data_room.rename")

	if err := ValidateName(name); err != nil {
		l.Warn().Err(err).Msg("invalid name")
		return nil
	}

	var dr DataRoom
	if err := d.c.DoJSON(ctx, http.MethodPut, idPath("/data-room", id), nameRequest{Name: name}, &dr); err != nil {
		l.Warn().Err(err).Uint("id", id).Send()
		return nil
	}

	return &dr
}

// Delete 删除数据室及其全部内容并刷新列表.
func (d *DataRooms) Delete(ctx context.Context, id uint) bool {
	if err := d.c.DoJSON(ctx, http.MethodDelete, idPath("/data-room", id), nil, nil); err != nil {
		logger(ctx, "data_room.delete").Warn().Err(err).Uint("id", id).Send()
		return false
	}

	d.List(ctx)

	return true
}

// Folders 文件夹访问器.
type Folders struct{ c *Client }

// Get 返回文件夹，id 为 0 时不发请求直接返回 nil.
func (f *Folders) Get(ctx context.Context, id uint) *Folder {
	if id == 0 {
		return nil
	}

	var out Folder
	if err := f.c.DoJSON(ctx, http.MethodGet, idPath("/folder", id), nil, &out); err != nil {
		logger(ctx, "folder.get").Warn().Err(err).Uint("id", id).Send()
		return nil
	}

	return &out
}

// Create 在 parent 下创建文件夹.
func (f *Folders) Create(ctx context.Context, name string, parent ParentRef) *Folder {
	l := logger(ctx, "folder.create")

	if err := validatePlacement(name, parent); err != nil {
		l.Warn().Err(err).Msg("invalid arguments")
		return nil
	}

	var out Folder
	if err := f.c.DoJSON(ctx, http.MethodPost, "/folder", placementBody(name, parent), &out); err != nil {
		l.Warn().Err(err).Send()
		return nil
	}

	return &out
}

// Move 重命名并移动文件夹，DataRoomRoot 表示移到数据室顶层.
func (f *Folders) Move(ctx context.Context, id uint, name string, parent ParentRef) *Folder {
	l := logger(ctx, "folder.move")

	if err := validatePlacement(name, parent); err != nil {
		l.Warn().Err(err).Msg("invalid arguments")
		return nil
	}

	var out Folder
	if err := f.c.DoJSON(ctx, http.MethodPut, idPath("/folder", id), placementBody(name, parent), &out); err != nil {
		l.Warn().Err(err).Uint("id", id).Send()
		return nil
	}

	return &out
}

// Delete 删除文件夹及其子树.
func (f *Folders) Delete(ctx context.Context, id uint) bool {
	if err := f.c.DoJSON(ctx, http.MethodDelete, idPath("/folder", id), nil, nil); err != nil {
		logger(ctx, "folder.delete").Warn().Err(err).Uint("id", id).Send()
		return false
	}

	return true
}

// Files 文件访问器. Get 与 Upload 返回错误，其余操作吞掉错误.
type Files struct{ c *Client }

// Content 带名称的上传内容，*os.File 满足该接口.
type Content interface {
	io.Reader
	Name() string
}

// Download 下载结果，调用方负责关闭 Body.
type Download struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// Get 下载文件内容.
func (f *Files) Get(ctx context.Context, id uint) (*Download, error) {
	resp, err := f.c.Do(ctx, http.MethodGet, idPath("/file", id), nil, "")
	if err != nil {
		return nil, err
	}

	d := &Download{
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
		Body:        resp.Body,
	}

	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		d.Name = params["filename"]
	}

	return d, nil
}

// Upload 上传 content 到 parent，文件名取自 content.Name().
func (f *Files) Upload(ctx context.Context, content Content, parent ParentRef) (*File, error) {
	if content == nil {
		return nil, fmt.Errorf("upload: content is required")
	}

	name := filepath.Base(content.Name())
	if err := validatePlacement(name, parent); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	body, contentType, err := multipartBody(name, content, parent)
	if err != nil {
		return nil, err
	}

	resp, err := f.c.Do(ctx, http.MethodPost, "/file", body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out File
	if err := decode(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	return &out, nil
}

// multipartBody 组装 {files, name, parent_data_room_id, parent_folder_id?}.
func multipartBody(name string, content io.Reader, parent ParentRef) (io.Reader, string, error) {
	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"name", name},
		{"parent_data_room_id", strconv.FormatUint(uint64(parent.DataRoom()), 10)},
	}
	if folder := parent.Folder(); folder != nil {
		fields = append(fields, [2]string{"parent_folder_id", strconv.FormatUint(uint64(*folder), 10)})
	}

	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "files", "filename": name}))

	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}

	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}

	if _, err := io.Copy(part, content); err != nil {
		return nil, "", fmt.Errorf("read upload content: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	return &buf, mw.FormDataContentType(), nil
}

// Move 重命名并移动文件.
func (f *Files) Move(ctx context.Context, id uint, name string, parent ParentRef) *File {
	l := logger(ctx, "file.move")

	if err := validatePlacement(name, parent); err != nil {
		l.Warn().Err(err).Msg("invalid arguments")
		return nil
	}

	var out File
	if err := f.c.DoJSON(ctx, http.MethodPut, idPath("/file", id), placementBody(name, parent), &out); err != nil {
		l.Warn().Err(err).Uint("id", id).Send()
		return nil
	}

	return &out
}

// Delete 删除文件.
func (f *Files) Delete(ctx context.Context, id uint) bool {
	if err := f.c.DoJSON(ctx, http.MethodDelete, idPath("/file", id), nil, nil); err != nil {
		logger(ctx, "file.delete").Warn().Err(err).Uint("id", id).Send()
		return false
	}

	return true
}
