package utils

import (
	"fmt"
	"reflect"

	"cloud.google.com/go/firestore"
)

func ToPointer[T any](value T) *T {
	return &value
}

// SnapshotsTo decodes query result snapshots into out, which must be a
// pointer to a slice of structs.
func SnapshotsTo(docs []*firestore.DocumentSnapshot, out any) error {
	ptr := reflect.ValueOf(out)
	if ptr.Kind() != reflect.Pointer || ptr.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("out must be a pointer to a slice, got %T", out)
	}
	slice := ptr.Elem()
	result := reflect.MakeSlice(slice.Type(), 0, len(docs))
	for _, doc := range docs {
		elem := reflect.New(slice.Type().Elem())
		if err := doc.DataTo(elem.Interface()); err != nil {
			return fmt.Errorf("failed to convert doc %s: %w", doc.Ref.ID, err)
		}
		result = reflect.Append(result, elem.Elem())
	}
	slice.Set(result)
	return nil
}
