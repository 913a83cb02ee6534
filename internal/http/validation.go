package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const invalidDataMessage = "The given data was invalid."

var registerTagNameOnce sync.Once

// useJSONFieldNames hace que los errores de validacion usen el nombre JSON del campo.
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindJSON decodifica y valida el body; ante error responde 422 y devuelve false.
// El body queda cacheado en el contexto para ubicar errores de tipo.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindBodyWith(req, binding.JSON); err != nil {
		var body []byte
		if cached, ok := c.Get(gin.BodyBytesKey); ok {
			body, _ = cached.([]byte)
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": invalidDataMessage,
			"errors":  fieldErrors(err, body),
		})
		return false
	}
	return true
}

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// fieldErrors traduce errores de binding a {campo: [mensajes]}.
func fieldErrors(err error, body []byte) map[string][]string {
	out := make(map[string][]string)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			key := fieldKey(fe.Namespace())
			out[key] = append(out[key], validationMessage(fe))
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		key := jsonPathAt(body, typeErr.Offset)
		if key == "" {
			key = typeErr.Field
		}
		if key != "" {
			out[key] = append(out[key], fmt.Sprintf("The %s field must be %s.", humanize(key), jsonTypeName(typeErr.Type)))
			return out
		}
	}

	out["body"] = []string{"The request body must be valid JSON."}
	return out
}

// fieldKey convierte "registerRequest.yardage_values[0][1].carry_value" en "yardage_values.0.1.carry_value".
func fieldKey(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	return indexPattern.ReplaceAllString(namespace, ".$1")
}

// humanize devuelve el ultimo segmento no numerico: "yardage_values.0.1" -> "yardage values".
func humanize(field string) string {
	field = indexPattern.ReplaceAllString(field, "")
	parts := strings.Split(field, ".")
	name := parts[len(parts)-1]
	for i := len(parts) - 1; i >= 0; i-- {
		if _, err := strconv.Atoi(parts[i]); err != nil {
			name = parts[i]
			break
		}
	}
	return strings.ReplaceAll(name, "_", " ")
}

func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "valid"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "true or false"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	}
	return "valid"
}

type jsonFrame struct {
	array     bool
	index     int
	key       string
	expectKey bool
}

// jsonPathAt recorre el body por tokens y devuelve la ruta ("yardage_values.0.1.carry_value")
// del valor que termina en offset, que es donde encoding/json reporta el error de tipo.
func jsonPathAt(body []byte, offset int64) string {
	if len(body) == 0 || offset <= 0 {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var stack []*jsonFrame
	advance := func() {
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		if top.array {
			top.index++
		} else {
			top.expectKey = true
		}
	}
	path := func() string {
		parts := make([]string, 0, len(stack))
		for _, f := range stack {
			if f.array {
				parts = append(parts, strconv.Itoa(f.index))
			} else {
				parts = append(parts, f.key)
			}
		}
		return strings.Join(parts, ".")
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		delim, isDelim := tok.(json.Delim)
		if isDelim && (delim == '}' || delim == ']') {
			stack = stack[:len(stack)-1]
			advance()
			continue
		}
		if n := len(stack); n > 0 && !stack[n-1].array && stack[n-1].expectKey {
			stack[n-1].key, _ = tok.(string)
			stack[n-1].expectKey = false
			continue
		}
		if dec.InputOffset() >= offset {
			return path()
		}
		if isDelim {
			stack = append(stack, &jsonFrame{array: delim == '[', expectKey: delim == '{'})
			continue
		}
		advance()
	}
}

func validationMessage(fe validator.FieldError) string {
	name := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.Bool {
			return fmt.Sprintf("The %s field must be accepted.", name)
		}
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", name)
	case "eqfield":
		return fmt.Sprintf("The %s field must match %s.", name, humanize(strings.ToLower(fe.Param())))
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "min":
		return fmt.Sprintf("The %s field must be at least %s%s.", name, fe.Param(), sizeUnit(fe.Kind()))
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s%s.", name, fe.Param(), sizeUnit(fe.Kind()))
	}
	return fmt.Sprintf("The %s field is invalid.", name)
}

func sizeUnit(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return " items"
	}
	return ""
}
