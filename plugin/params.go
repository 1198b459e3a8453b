package plugin

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

// paramTag 参数结构体字段上的标签名
//
//	type Params struct {
//	    Output string `param:"name=output,required=false,default=,description=输出文件路径"`
//	}
const paramTag = "param"

// ParseParamsFromStruct 按字段顺序读取 param 标签，v 可以是结构体或其指针
// 标签中的 '\,' 与 '\=' 表示字面量
func ParseParamsFromStruct(v any) []ParamDef {
	typ := structType(reflect.TypeOf(v))
	if typ == nil {
		return nil
	}

	var params []ParamDef
	for i := range typ.NumField() {
		if def, ok := fieldParam(typ.Field(i)); ok {
			params = append(params, def)
		}
	}
	return params
}

func structType(typ reflect.Type) reflect.Type {
	if typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil
	}
	return typ
}

func fieldParam(field reflect.StructField) (ParamDef, bool) {
	tag, ok := field.Tag.Lookup(paramTag)
	if !ok || tag == "" {
		return ParamDef{}, false
	}
	def := parseParamTag(tag)
	return def, def.Name != ""
}

// parseParamTag 解析 "name=xxx,required=true,default=xxx,description=xxx"
func parseParamTag(tag string) ParamDef {
	var def ParamDef
	for key, value := range splitTag(tag) {
		switch key {
		case "name":
			def.Name = value
		case "required":
			def.Required = cast.ToBool(value)
		case "default":
			def.Default = value
		case "description":
			def.Description = value
		}
	}
	return def
}

// splitTag 将 "k1=v1,k2=v2" 拆成键值对，反斜杠转义下一个字符
func splitTag(tag string) map[string]string {
	result := make(map[string]string)

	var key, value strings.Builder
	cur := &key
	flush := func() {
		if key.Len() > 0 {
			result[key.String()] = value.String()
		}
		key.Reset()
		value.Reset()
		cur = &key
	}

	for i := 0; i < len(tag); i++ {
		switch ch := tag[i]; {
		case ch == '\\' && i+1 < len(tag):
			i++
			cur.WriteByte(tag[i])
		case ch == '=' && cur == &key:
			cur = &value
		case ch == ',':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return result
}

// ParseParamBool 宽松解析布尔值，无法识别时为 false
func ParseParamBool(value string) bool {
	return cast.ToBool(value)
}

// ParseAnnotationParams 将注解参数写入 target 指向的结构体
//
// 注解中缺省的参数取 paramDefs 中的默认值；必填参数缺省时报错。
// 空字符串对非字符串字段视为零值。
//
//	var params DissolveParams
//	err := plugin.ParseAnnotationParams(annotation, &params, gen.ParamDefs())
func ParseAnnotationParams(annotation *Annotation, target any, paramDefs []ParamDef) error {
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.IsNil() || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("参数目标必须是非空的结构体指针, 得到: %T", target)
	}
	val = val.Elem()

	defaults := make(map[string]ParamDef, len(paramDefs))
	for _, def := range paramDefs {
		defaults[def.Name] = def
	}

	typ := val.Type()
	for i := range typ.NumField() {
		fieldVal := val.Field(i)
		def, ok := fieldParam(typ.Field(i))
		if !ok || !fieldVal.CanSet() {
			continue
		}
		if d, ok := defaults[def.Name]; ok {
			def = d
		}

		value := annotation.GetParam(def.Name)
		if value == "" {
			if def.Required {
				return fmt.Errorf("@%s 缺少必填参数 %s", annotationName(annotation), def.Name)
			}
			value = def.Default
		}
		if err := setFieldValue(fieldVal, value); err != nil {
			return fmt.Errorf("参数 %s: %w", def.Name, err)
		}
	}
	return nil
}

func annotationName(a *Annotation) string {
	if a == nil {
		return "?"
	}
	return a.Name
}

// setFieldValue 按字段类型转换字符串，支持字符串、整数、无符号整数、布尔与浮点数
func setFieldValue(field reflect.Value, value string) error {
	if value == "" && field.Kind() != reflect.String {
		field.SetZero()
		return nil
	}

	var err error
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var v int64
		if v, err = cast.ToInt64E(value); err != nil || field.OverflowInt(v) {
			return fmt.Errorf("参数值 %q 不是整数", value)
		}
		field.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var v uint64
		if v, err = cast.ToUint64E(value); err != nil || field.OverflowUint(v) {
			return fmt.Errorf("参数值 %q 不是无符号整数", value)
		}
		field.SetUint(v)
	case reflect.Bool:
		var v bool
		if v, err = cast.ToBoolE(value); err != nil {
			return fmt.Errorf("参数值 %q 不是布尔值: %w", value, err)
		}
		field.SetBool(v)
	case reflect.Float32, reflect.Float64:
		var v float64
		if v, err = cast.ToFloat64E(value); err != nil {
			return fmt.Errorf("参数值 %q 不是浮点数: %w", value, err)
		}
		field.SetFloat(v)
	default:
		return fmt.Errorf("不支持的参数类型 %s", field.Type())
	}
	return nil
}
