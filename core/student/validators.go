package student

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/icpschool/schoolpay/core"
)

var (
	gradeTag  = "grade"
	gradeText = "invalid grade"

	strandTag  = "strand"
	strandText = "invalid strand"

	sectionTag  = "section"
	sectionText = "invalid section"

	balanceStatusTag  = "balancestatus"
	balanceStatusText = "invalid balance status"
)

// InitValidators registers the classification and balance status validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(gradeTag, oneOfValidation(Grades))
	core.RegisterCustomTranslation(validate, translator, gradeTag, gradeText)

	_ = validate.RegisterValidation(strandTag, oneOfValidation(Strands))
	core.RegisterCustomTranslation(validate, translator, strandTag, strandText)

	_ = validate.RegisterValidation(sectionTag, oneOfValidation(Sections))
	core.RegisterCustomTranslation(validate, translator, sectionTag, sectionText)

	_ = validate.RegisterValidation(balanceStatusTag, oneOfValidation(Statuses))
	core.RegisterCustomTranslation(validate, translator, balanceStatusTag, balanceStatusText)
}

func oneOfValidation(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return contains(allowed, fl.Field().String())
	}
}

func contains(vals []string, v string) bool {
	for _, val := range vals {
		if val == v {
			return true
		}
	}
	return false
}
