package model

// Decorator adjusts a form description after it has been built, for example
// to relabel or reorder fields for one entity type.
type Decorator interface {
	Decorate(*FormDescription) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*FormDescription) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(form *FormDescription) error {
	return fn(form)
}

// Decorate applies decorators in order, stopping at the first error. Nil
// decorators are skipped.
func Decorate(form *FormDescription, decorators ...Decorator) error {
	for _, d := range decorators {
		if d == nil {
			continue
		}
		if err := d.Decorate(form); err != nil {
			return err
		}
	}
	return nil
}
