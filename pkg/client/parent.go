package client

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/yeisme/dataroom/pkg/rule"
)

// ParentRef 文件夹或文件的放置位置：数据室根目录或某个文件夹，二者取其一.
type ParentRef interface {
	// DataRoom 目标数据室.
	DataRoom() uint
	// Folder 目标文件夹，根目录时为 nil.
	Folder() *uint
	validation.Validatable

	isParent()
}

// DataRoomRoot 数据室根目录.
type DataRoomRoot struct {
	DataRoomID uint
}

func (r DataRoomRoot) DataRoom() uint { return r.DataRoomID }
func (r DataRoomRoot) Folder() *uint  { return nil }
func (DataRoomRoot) isParent()        {}

// Validate 数据室 ID 必填.
func (r DataRoomRoot) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DataRoomID, validation.Required),
	)
}

// FolderRef 数据室中的某个文件夹.
type FolderRef struct {
	DataRoomID uint
	FolderID   uint
}

func (r FolderRef) DataRoom() uint { return r.DataRoomID }
func (FolderRef) isParent()        {}

func (r FolderRef) Folder() *uint {
	id := r.FolderID
	return &id
}

// Validate 数据室与文件夹 ID 均必填.
func (r FolderRef) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DataRoomID, validation.Required),
		validation.Field(&r.FolderID, validation.Required),
	)
}

// ParentOf 按可选的文件夹 ID 构造 ParentRef.
func ParentOf(dataRoomID uint, folderID *uint) ParentRef {
	if folderID == nil || *folderID == 0 {
		return DataRoomRoot{DataRoomID: dataRoomID}
	}

	return FolderRef{DataRoomID: dataRoomID, FolderID: *folderID}
}

// nameRules 与服务端 entryname 规则一致.
var nameRules = []validation.Rule{
	validation.Required,
	validation.Length(1, rule.MaxNameLength),
	validation.By(func(v any) error {
		if s, _ := v.(string); !rule.ValidName(s) {
			return validation.NewError("validation_entry_name", "must be a name without path separators")
		}

		return nil
	}),
}

// ValidateName 校验数据室、文件夹或文件名.
func ValidateName(name string) error {
	return validation.Validate(name, nameRules...)
}

func validatePlacement(name string, parent ParentRef) error {
	if parent == nil {
		return validation.NewError("validation_parent_required", "parent is required")
	}

	return validation.Errors{
		"name":   ValidateName(name),
		"parent": parent.Validate(),
	}.Filter()
}

func placementBody(name string, parent ParentRef) placementRequest {
	return placementRequest{Name: name, ParentDataRoomID: parent.DataRoom(), ParentFolderID: parent.Folder()}
}
