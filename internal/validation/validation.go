// Package validation 建立共用的 validator，欄位名稱使用 json tag，錯誤訊息經由 en translator 產生
package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// NotBlankTag 拒絕只有空白的字串
const NotBlankTag = "notblank"

// Translator 英文訊息翻譯器，New 會把訊息註冊到這裡
var Translator ut.Translator

// 以下 tag 使用自訂訊息覆蓋 en 預設翻譯
var messageTags = []string{"required", NotBlankTag, "max", "min", "email", "oneof", "number", "numeric", "datetime", "gte", "lte"}

func init() {
	_en := en.New()
	Translator, _ = ut.New(_en, _en).GetTranslator("en")
}

// New 回傳已註冊 json 欄位名稱、notblank 與英文訊息的 validator
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation(NotBlankTag, notBlank)
	_ = en_translations.RegisterDefaultTranslations(v, Translator)

	// 預設翻譯已註冊 translator，這裡只需要覆蓋訊息
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range messageTags {
		_ = v.RegisterTranslation(tag, Translator, registerFn, func(_ ut.Translator, fe validator.FieldError) string {
			return Message(fe)
		})
	}
	return v
}

func notBlank(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// Message 回傳欄位錯誤的使用者訊息；未列出的 tag 交給 en 翻譯
func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", NotBlankTag:
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "oneof":
		return fmt.Sprintf("Select a valid choice. Allowed values: %s.", fe.Param())
	case "number", "numeric":
		return "Enter a whole number."
	case "datetime":
		return "Enter a valid date in YYYY-MM-DD format."
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	}
	// validator 未註冊 Translator 時 Translate 會回傳原始錯誤字串
	if msg := fe.Translate(Translator); msg != fe.Error() {
		return msg
	}
	return "Invalid value."
}
