package treefmt

import (
	"fmt"

	"stagec/internal/types"
)

// ParseType reads a type written as an s-expression and interns it:
//
//	int   any   (fun (int int) int)   (code js int)   (code float)
func ParseType(src string, in *types.Interner) (types.TypeID, error) {
	doc, err := sexprParser.ParseString("type", src)
	if err != nil {
		return types.NoTypeID, fmt.Errorf("%w: type %q: %v", ErrSyntax, src, err)
	}
	if len(doc.Forms) != 1 {
		return types.NoTypeID, fmt.Errorf("%w: type %q must be a single form", ErrSyntax, src)
	}
	return typeOf(doc.Forms[0], in)
}

func typeOf(s *sexpr, in *types.Interner) (types.TypeID, error) {
	if name, ok := s.symbol(); ok {
		kind, ok := types.KindByName(name)
		if !ok {
			return types.NoTypeID, fmt.Errorf("%w: unknown type %q", ErrSyntax, name)
		}
		return in.Intern(types.Type{Kind: kind}), nil
	}
	if s.List == nil || len(s.List.Items) == 0 {
		return types.NoTypeID, fmt.Errorf("%w: expected a type", ErrSyntax)
	}
	head, _ := s.List.Items[0].symbol()
	args := s.List.Items[1:]
	switch head {
	case "fun":
		if len(args) != 2 || args[0].List == nil {
			return types.NoTypeID, fmt.Errorf("%w: (fun (params...) result)", ErrSyntax)
		}
		params := make([]types.TypeID, 0, len(args[0].List.Items))
		for _, p := range args[0].List.Items {
			id, err := typeOf(p, in)
			if err != nil {
				return types.NoTypeID, err
			}
			params = append(params, id)
		}
		result, err := typeOf(args[1], in)
		if err != nil {
			return types.NoTypeID, err
		}
		return in.RegisterFn(params, result), nil
	case "code":
		annotation := ""
		if len(args) == 2 {
			ann, ok := args[0].symbol()
			if !ok {
				return types.NoTypeID, fmt.Errorf("%w: code annotation must be a symbol", ErrSyntax)
			}
			annotation = ann
			args = args[1:]
		}
		if len(args) != 1 {
			return types.NoTypeID, fmt.Errorf("%w: (code [annotation] type)", ErrSyntax)
		}
		elem, err := typeOf(args[0], in)
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Intern(types.MakeCode(elem, annotation)), nil
	}
	return types.NoTypeID, fmt.Errorf("%w: unknown type constructor %q", ErrSyntax, head)
}
