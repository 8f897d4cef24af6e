// Package template renders notification subjects and bodies from
// registered templates with simple {{name}} placeholder substitution.
package template
