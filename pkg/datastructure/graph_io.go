package datastructure

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dsnet/compress/bzip2"
	"github.com/lintang-b-s/navsim/pkg/util"
)

var ErrMalformedGraphFile = errors.New("malformed graph file")

func ParseIndex(s string) (Index, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return Index(v), nil
}

/*
WriteGraph. bzip2 compressed text file:

	n m
	x y            (n lines, junction i on line i)
	from to dist   (m lines)
*/
func (g *Graph) WriteGraph(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := g.Encode(f); err != nil {
		return err
	}
	return f.Sync()
}

func (g *Graph) Encode(out io.Writer) error {
	bz, err := bzip2.NewWriter(out, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}

	w := bufio.NewWriter(bz)

	fmt.Fprintf(w, "%d %d\n", len(g.junctions), len(g.roads))

	for _, j := range g.junctions {
		xF := strconv.FormatFloat(j.position.X, 'f', -1, 64)
		yF := strconv.FormatFloat(j.position.Y, 'f', -1, 64)
		fmt.Fprintf(w, "%s %s\n", xF, yF)
	}

	for _, r := range g.roads {
		distF := strconv.FormatFloat(r.baseDistance, 'f', -1, 64)
		fmt.Fprintf(w, "%d %d %s\n", r.from, r.to, distF)
	}

	if err := w.Flush(); err != nil {
		return err
	}
	return bz.Close()
}

func ReadGraph(filename string) (*Graph, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeGraph(f)
}

func DecodeGraph(in io.Reader) (*Graph, error) {
	bz, err := bzip2.NewReader(in, nil)
	if err != nil {
		return nil, err
	}
	defer bz.Close()

	br := bufio.NewReader(bz)

	line, err := util.ReadLine(br)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	tokens := util.Fields(line)
	if len(tokens) != 2 {
		return nil, fmt.Errorf("header %q: %w", line, ErrMalformedGraphFile)
	}

	numJunctions, err := ParseIndex(tokens[0])
	if err != nil {
		return nil, fmt.Errorf("header %q: %w", line, ErrMalformedGraphFile)
	}
	numRoads, err := ParseIndex(tokens[1])
	if err != nil {
		return nil, fmt.Errorf("header %q: %w", line, ErrMalformedGraphFile)
	}

	b := NewGraphBuilder()
	for i := Index(0); i < numJunctions; i++ {
		line, err = util.ReadLine(br)
		if err != nil {
			return nil, fmt.Errorf("reading junction %d: %w", i, err)
		}
		tokens = util.Fields(line)
		if len(tokens) != 2 {
			return nil, fmt.Errorf("junction %d %q: %w", i, line, ErrMalformedGraphFile)
		}
		x, errX := strconv.ParseFloat(tokens[0], 64)
		y, errY := strconv.ParseFloat(tokens[1], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("junction %d %q: %w", i, line, ErrMalformedGraphFile)
		}
		b.AddJunction(x, y)
	}

	for i := Index(0); i < numRoads; i++ {
		line, err = util.ReadLine(br)
		if err != nil {
			return nil, fmt.Errorf("reading road %d: %w", i, err)
		}
		tokens = util.Fields(line)
		if len(tokens) != 3 {
			return nil, fmt.Errorf("road %d %q: %w", i, line, ErrMalformedGraphFile)
		}
		from, errF := ParseIndex(tokens[0])
		to, errT := ParseIndex(tokens[1])
		dist, errD := strconv.ParseFloat(tokens[2], 64)
		if errF != nil || errT != nil || errD != nil {
			return nil, fmt.Errorf("road %d %q: %w", i, line, ErrMalformedGraphFile)
		}
		if err := b.AddRoad(from, to, dist); err != nil {
			return nil, err
		}
	}

	return b.Build(), nil
}
