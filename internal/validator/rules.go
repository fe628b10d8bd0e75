package validator

import (
	"github.com/eduhub/internal/logger"
	"github.com/eduhub/internal/model"
	"github.com/go-playground/validator/v10"
)

// registerRules регистрирует правила для перечислений модели. Пустые значения
// пропускаются: обязательность задаёт тег required.
func registerRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			logger.Errorf("validator: register %q: %v", tag, err)
			panic(err)
		}
	}
	mustRegister("chattype", stringRule(func(s string) bool { return model.ChatType(s).Valid() }))
	mustRegister("category", stringRule(func(s string) bool { return model.Category(s).Valid() }))
	mustRegister("supportcategory", stringRule(func(s string) bool { return model.Category(s).IsSupport() }))
	// устаревшие статусы принимаются и нормализуются дальше по цепочке
	mustRegister("reviewstatus", stringRule(func(s string) bool { return model.ReviewStatus(s).Normalize().Valid() }))
	mustRegister("contexttype", stringRule(func(s string) bool {
		switch model.ContextType(s) {
		case model.ContextCourse, model.ContextTopic, model.ContextLesson, model.ContextContent:
			return true
		}
		return false
	}))
}

func stringRule(ok func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || ok(s)
	}
}
