package surrogate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/coolbeans/kmdp/pkg/id"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateIdentifier, id.ResourceIdentifier{})
	return v
}

func validateIdentifier(sl validator.StructLevel) {
	rid := sl.Current().Interface().(id.ResourceIdentifier)
	if rid.ResourceID == "" {
		sl.ReportError(rid.ResourceID, "ResourceID", "resourceId", "required", "")
	}
	if rid.UUID == uuid.Nil {
		sl.ReportError(rid.UUID, "UUID", "uuid", "required", "")
	}
}

// Validate checks the structural constraints of a surrogate and that its
// canonical surrogate artifact is present.
func Validate(asset *KnowledgeAsset) error {
	if asset == nil {
		return errors.New("surrogate is nil")
	}

	if err := validate.Struct(asset); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		messages := make([]string, len(fieldErrs))
		for i, fe := range fieldErrs {
			messages[i] = fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid surrogate: %s", strings.Join(messages, "; "))
	}

	if _, ok := CanonicalSurrogate(asset); !ok {
		return fmt.Errorf("invalid surrogate: no canonical surrogate for %s", asset.AssetID)
	}
	return nil
}
