package stitch

// Child builds an injector that sees every binding of i. Its own declarations
// take precedence over inherited ones. Shared instances of inherited bindings
// stay owned by the injector that declared them, so parent and child observe
// the same instance.
func (i *Injector) Child(decls ...Declaration) (*Injector, error) {
	return build(i, i.config.clone(), decls)
}

func (i *Injector) MustChild(decls ...Declaration) *Injector {
	child, err := i.Child(decls...)
	if err != nil {
		panic(err)
	}
	return child
}
