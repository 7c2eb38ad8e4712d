// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package exuder

// Visitor is notified after each cell is processed with the number of cells
// left to process. It has no effect on exudation.
type Visitor interface {
	AfterCellPumped(cellsLeft int)
}

type VisitorFunc func(cellsLeft int)

func (f VisitorFunc) AfterCellPumped(cellsLeft int) {
	f(cellsLeft)
}

type NullVisitor struct{}

func (NullVisitor) AfterCellPumped(int) {}
