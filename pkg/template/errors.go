package template

import "errors"

// ErrTemplateNotFound indicates a render of an unregistered template id.
var ErrTemplateNotFound = errors.New("template: template not found")
