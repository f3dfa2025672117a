package resume

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Operation 一次编辑操作，HTTP 批量编辑接口按顺序逐条应用
type Operation struct {
	Op      string    `json:"op" validate:"required,oneof=setField addListItem updateListItem removeListItem commitBlankItem toggleSection"`
	Field   Field     `json:"field,omitempty" validate:"required_if=Op setField"`
	Value   string    `json:"value,omitempty"`
	Section Section   `json:"section,omitempty" validate:"omitempty,oneof=skills education projects"`
	Index   int       `json:"index,omitempty" validate:"gte=0"`
	Patch   ItemPatch `json:"patch,omitempty"`
}

var operationValidate = validator.New()

// Validate 校验操作结构
func (op Operation) Validate() error {
	if err := operationValidate.Struct(op); err != nil {
		return err
	}
	if op.Op != "setField" && op.Section == "" {
		return fmt.Errorf("%s 操作缺少 section", op.Op)
	}
	return nil
}

// Apply 把操作应用到编辑器
func (e *Editor) Apply(op Operation) error {
	if err := op.Validate(); err != nil {
		return err
	}
	switch op.Op {
	case "setField":
		return e.SetField(op.Field, op.Value)
	case "addListItem":
		_, err := e.AddListItem(op.Section)
		return err
	case "updateListItem":
		return e.UpdateListItem(op.Section, op.Index, op.Patch)
	case "removeListItem":
		return e.RemoveListItem(op.Section, op.Index)
	case "commitBlankItem":
		_, err := e.CommitBlankItemPolicy(op.Section, op.Index)
		return err
	case "toggleSection":
		e.ToggleSection(op.Section)
		return nil
	}
	return fmt.Errorf("未知的编辑操作: %s", op.Op)
}
