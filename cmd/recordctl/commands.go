/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/suparena/entityrecord/aggregate"
	"github.com/suparena/entityrecord/storagemodels"
)

func newLoadCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "load <fixtures.yaml>",
		Short: "Insert the entities of a fixture document and commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer s.close()

			n, err := loadFixtures(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %s (%d keyed entities)\n", args[0], n)
			return nil
		},
	}
}

func newFindCmd(g *globalFlags) *cobra.Command {
	var where, sortBy []string
	var first bool

	cmd := &cobra.Command{
		Use:   "find <type>",
		Short: "List entities matching the filters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, err := parseWhere(where)
			if err != nil {
				return err
			}
			s, err := open(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer s.close()

			entities, err := s.records.FindAll(cmd.Context(), args[0], pred, parseSort(sortBy)...)
			if err != nil {
				return err
			}
			if first && len(entities) > 1 {
				entities = entities[:1]
			}
			for _, e := range entities {
				printEntity(cmd.OutOrStdout(), e)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "Filter such as level>5 (repeatable, ANDed)")
	cmd.Flags().StringArrayVarP(&sortBy, "sort", "s", nil, "Sort path, prefix with - for descending (repeatable)")
	cmd.Flags().BoolVar(&first, "first", false, "Print only the first match")
	return cmd
}

func newCountCmd(g *globalFlags) *cobra.Command {
	var where []string

	cmd := &cobra.Command{
		Use:   "count <type>",
		Short: "Count entities matching the filters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, err := parseWhere(where)
			if err != nil {
				return err
			}
			s, err := open(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer s.close()

			n, err := s.records.Count(cmd.Context(), args[0], pred)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "Filter such as level>5 (repeatable, ANDed)")
	return cmd
}

func newDeleteCmd(g *globalFlags) *cobra.Command {
	var where []string
	var all bool

	cmd := &cobra.Command{
		Use:   "delete <type>",
		Short: "Delete entities matching the filters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(where) == 0 && !all {
				return fmt.Errorf("refusing to delete every %s without --all", args[0])
			}
			pred, err := parseWhere(where)
			if err != nil {
				return err
			}
			s, err := open(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer s.close()

			n, err := s.records.DeleteAll(cmd.Context(), args[0], pred)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", n)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "Filter such as level>5 (repeatable, ANDed)")
	cmd.Flags().BoolVar(&all, "all", false, "Allow deleting without filters")
	return cmd
}

func newUpdateCmd(g *globalFlags) *cobra.Command {
	var where, set []string

	cmd := &cobra.Command{
		Use:   "update <type>",
		Short: "Assign values to entities matching the filters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, err := parseWhere(where)
			if err != nil {
				return err
			}
			values, err := parseAssignments(set)
			if err != nil {
				return err
			}
			s, err := open(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer s.close()

			n, err := s.records.UpdateAll(cmd.Context(), args[0], pred, values)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d\n", n)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "Filter such as level>5 (repeatable, ANDed)")
	cmd.Flags().StringArrayVar(&set, "set", nil, "Assignment such as level=50 (repeatable)")
	return cmd
}

func newAggregateCmd(g *globalFlags) *cobra.Command {
	var where, groupBy, fields []string

	cmd := &cobra.Command{
		Use:   "aggregate <type>",
		Short: "Compute sum, min, max, avg or count over entity fields",
		Example: `  recordctl aggregate Pokemon --field sum:level
  recordctl aggregate Pokemon --field avg:level --group-by type.name`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, err := parseWhere(where)
			if err != nil {
				return err
			}
			req := aggregate.Request{Where: pred, GroupBy: groupBy}
			for _, f := range fields {
				name, path, ok := strings.Cut(f, ":")
				if !ok {
					return fmt.Errorf("invalid field %q, want func:path", f)
				}
				fn, err := aggregate.ParseFunc(name)
				if err != nil {
					return err
				}
				req.Fields = append(req.Fields, aggregate.FieldFunc{Path: path, Func: fn})
			}

			s, err := open(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer s.close()

			rows, err := s.records.Aggregate(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			for _, row := range rows {
				printRow(cmd.OutOrStdout(), row)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Aggregate as func:path, e.g. sum:level (repeatable)")
	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "Filter such as level>5 (repeatable, ANDed)")
	cmd.Flags().StringArrayVarP(&groupBy, "group-by", "g", nil, "Group path (repeatable)")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

// printEntity writes one line: the id followed by name=value pairs sorted by
// name, then relationships.
func printEntity(w io.Writer, e *storagemodels.Entity) {
	names := make([]string, 0, len(e.Attributes))
	for name := range e.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := []string{e.ID}
	for _, name := range names {
		parts = append(parts, name+"="+e.Get(name).String())
	}

	rels := make([]string, 0, len(e.Relationships))
	for name := range e.Relationships {
		rels = append(rels, name)
	}
	sort.Strings(rels)
	for _, name := range rels {
		refs := make([]string, 0, len(e.Relationships[name]))
		for _, r := range e.Relationships[name] {
			refs = append(refs, r.String())
		}
		parts = append(parts, name+"->"+strings.Join(refs, ","))
	}
	fmt.Fprintln(w, strings.Join(parts, " "))
}

func printRow(w io.Writer, row aggregate.Row) {
	parts := make([]string, 0, len(row.Group)+len(row.Values))
	for _, v := range row.Group {
		parts = append(parts, v.String())
	}
	for _, v := range row.Values {
		parts = append(parts, v.String())
	}
	fmt.Fprintln(w, strings.Join(parts, "\t"))
}
